package impl

import (
	"unicode"

	"disbroad/internal/domain"
)

// PasswordPolicy holds the configured thresholds a candidate password must
// meet before it is hashed or persisted.
type PasswordPolicy struct {
	MinLength    int
	MaxLength    int
	MinUppercase int
	MinLowercase int
	MinNumber    int
	MinSpecial   int
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    8,
		MaxLength:    72,
		MinUppercase: 1,
		MinLowercase: 1,
		MinNumber:    1,
		MinSpecial:   1,
	}
}

// Validate checks length bounds first (no scan needed), then counts character
// classes in a single pass. Every unmet rule yields its own violation.
func (p PasswordPolicy) Validate(password string) []domain.Violation {
	if n := len([]rune(password)); n < p.MinLength || n > p.MaxLength {
		return []domain.Violation{{
			Code:   domain.ViolationLength,
			MinLen: p.MinLength,
			MaxLen: p.MaxLength,
		}}
	}

	var upper, lower, number, special int
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLower(r):
			lower++
		case unicode.IsDigit(r):
			number++
		default:
			special++
		}
	}

	var out []domain.Violation
	if upper < p.MinUppercase {
		out = append(out, domain.Violation{Code: domain.ViolationUppercase, Condition: "uppercase_count", Minimum: p.MinUppercase})
	}
	if lower < p.MinLowercase {
		out = append(out, domain.Violation{Code: domain.ViolationLowercase, Condition: "lowercase_count", Minimum: p.MinLowercase})
	}
	if number < p.MinNumber {
		out = append(out, domain.Violation{Code: domain.ViolationNumber, Condition: "number_count", Minimum: p.MinNumber})
	}
	if special < p.MinSpecial {
		out = append(out, domain.Violation{Code: domain.ViolationSpecial, Condition: "special_count", Minimum: p.MinSpecial})
	}
	return out
}
