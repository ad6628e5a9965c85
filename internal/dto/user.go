package dto

import (
	"time"

	"disbroad/internal/domain"
)

type Status struct {
	Type    domain.StatusType `json:"type"`
	Message *string           `json:"message"`
}

// PublicUser is the view of a user anyone may see.
type PublicUser struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Username   string    `json:"username"`
	Tag        int       `json:"tag"`
	Icon       *string   `json:"icon"`
	Bio        *string   `json:"bio"`
	Status     Status    `json:"status"`
	LastOnline time.Time `json:"last_online"`
	IsOnline   bool      `json:"is_online"`
	IsBanned   bool      `json:"is_banned"`
	IsVerified bool      `json:"is_verified"`
}

// PrivateUser extends PublicUser with fields only the owner may see.
type PrivateUser struct {
	PublicUser
	Email  string      `json:"email"`
	Tokens []TokenView `json:"tokens"`
}

func NewPublicUser(u *domain.User) PublicUser {
	var icon *string
	if u.Icon != nil {
		s := u.Icon.String()
		icon = &s
	}
	return PublicUser{
		ID:         u.ID.String(),
		CreatedAt:  u.CreatedAt,
		Username:   u.Username,
		Tag:        u.Tag,
		Icon:       icon,
		Bio:        u.Bio,
		Status:     Status{Type: u.StatusType, Message: u.StatusMessage},
		LastOnline: u.LastOnline,
		IsOnline:   u.IsOnline,
		IsBanned:   u.IsBanned,
		IsVerified: u.IsVerified,
	}
}

func NewPrivateUser(u *domain.User, tokens []*domain.Token) PrivateUser {
	views := make([]TokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, NewTokenView(t))
	}
	return PrivateUser{
		PublicUser: NewPublicUser(u),
		Email:      u.Email,
		Tokens:     views,
	}
}
