package service

import (
	"context"
	"time"

	"disbroad/internal/domain"
	"disbroad/internal/dto"
)

type TokenService interface {
	Issue(ctx context.Context, user *domain.User, device dto.DeviceInfo) (*dto.TokenResponse, error)
	Verify(ctx context.Context, accessToken string) (*domain.Token, error)
	Revoke(ctx context.Context, tokenID domain.TokenID) error
	RevokeAll(ctx context.Context, userID domain.UserID) (int64, error)
	Tokens(ctx context.Context, userID domain.UserID) ([]*domain.Token, error)
	Device(ctx context.Context, deviceID domain.DeviceID) (*domain.Device, error)
	IssueVerificationCode(ctx context.Context, userID domain.UserID, ttl time.Duration) (*domain.VerificationCode, error)
}
