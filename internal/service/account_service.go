package service

import (
	"context"

	"disbroad/internal/domain"
	"disbroad/internal/dto"
)

type AccountService interface {
	Register(ctx context.Context, r dto.RegisterRequest) (*domain.User, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.User, error)
	Update(ctx context.Context, id domain.UserID, patch dto.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id domain.UserID) (map[string]int64, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	SetPassword(ctx context.Context, id domain.UserID, password string) error
	VerifyEmail(ctx context.Context, code string) error
	SetPresence(ctx context.Context, id domain.UserID, online bool) error
	SetBan(ctx context.Context, id domain.UserID, banned bool) error
}
