package domain

// Violation is one unmet password-policy rule, shaped for the wire: a
// machine-readable code plus the threshold that was not met.
type Violation struct {
	Code      string `json:"code"`
	Condition string `json:"condition,omitempty"`
	Minimum   int    `json:"minimum_value,omitempty"`
	MinLen    int    `json:"min_len,omitempty"`
	MaxLen    int    `json:"max_len,omitempty"`
}

const (
	ViolationLength    = "password_length_invalid"
	ViolationUppercase = "password_uppercase_invalid"
	ViolationLowercase = "password_lowercase_invalid"
	ViolationNumber    = "password_number_invalid"
	ViolationSpecial   = "password_special_invalid"
)

// PolicyError aggregates every rule a candidate password failed; rules are
// never collapsed into a single generic error.
type PolicyError struct {
	Violations []Violation
}

func (e *PolicyError) Error() string {
	if len(e.Violations) == 1 {
		return "password policy violation: " + e.Violations[0].Code
	}
	return "password policy violations"
}
