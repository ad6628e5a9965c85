package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"disbroad/internal/domain"
	"disbroad/internal/dto"
	"disbroad/internal/netutil"
	"disbroad/internal/observability/metrics"
	"disbroad/internal/observability/middleware"
	"disbroad/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Issuer     string        // e.g. "disbroad"
	Audience   string        // e.g. "disbroad-clients"
	TokenTTL   time.Duration // lifetime of the token row and its JWT
	SigningKey []byte        // HS256 secret
}

// AccessClaims binds the JWT to a tokens row: jti == token id.
type AccessClaims struct {
	DID string `json:"did"` // device id
	jwt.RegisteredClaims
}

type TokenServiceImpl struct {
	cfg   TokenConfig
	store *store.Store
}

func NewTokenServiceHS256(cfg TokenConfig, st *store.Store) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, store: st}
}

// Issue mints a token for the user, creating a device row first when the
// device fingerprint has not been seen before.
func (t *TokenServiceImpl) Issue(ctx context.Context, user *domain.User, info dto.DeviceInfo) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("issue", result).Inc()
	}()
	now := time.Now().UTC()

	var resp *dto.TokenResponse
	err := t.store.WithTx(ctx, func(tx *store.Store) error {
		device, err := t.ensureDevice(ctx, tx, user.ID, info, now)
		if err != nil {
			return err
		}

		tok := &domain.Token{
			ID:        uuid.New(),
			UserID:    user.ID,
			DeviceID:  device.ID,
			ExpiresAt: now.Add(t.cfg.TokenTTL),
			LastUsed:  now,
			CreatedAt: now,
		}
		if err := tx.Tokens().Create(ctx, tok); err != nil {
			return err
		}

		signed, err := t.sign(user.ID, tok, now)
		if err != nil {
			return err
		}
		resp = &dto.TokenResponse{
			AccessToken: signed,
			ExpiresIn:   int64(t.cfg.TokenTTL.Seconds()),
		}
		return nil
	})
	if err != nil {
		result = "failure"
		return nil, err
	}

	reqID := middleware.RequestIDFromContext(ctx)
	slog.Info("issued token", "user_id", user.ID, "request_id", reqID)

	return resp, nil
}

func (t *TokenServiceImpl) ensureDevice(ctx context.Context, tx *store.Store, userID domain.UserID, info dto.DeviceInfo, now time.Time) (*domain.Device, error) {
	name := netutil.TruncateField(strings.TrimSpace(info.Name))
	if name == "" {
		name = "unknown"
	}
	mac, _ := netutil.NormalizeMAC(info.MAC)

	device, err := tx.Devices().FindByFingerprint(ctx, userID, name, mac)
	if err == nil {
		return device, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	ip, _ := netutil.NormalizeIP(info.IP)
	device = &domain.Device{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       name,
		IP:         ip,
		MAC:        mac,
		Language:   netutil.TruncateField(info.Language),
		OS:         netutil.TruncateField(info.OS),
		ScreenSize: netutil.TruncateField(info.ScreenSize),
		Country:    netutil.TruncateField(info.Country),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.Devices().Create(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// Verify parses the access JWT, loads the backing token row and rejects
// revoked or expired tokens. A valid call touches last_used.
func (t *TokenServiceImpl) Verify(ctx context.Context, accessToken string) (*domain.Token, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidCredentials
	}
	if claims.Issuer != t.cfg.Issuer || !containsAudience(claims.Audience, t.cfg.Audience) {
		return nil, domain.ErrInvalidCredentials
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	tok, err := t.store.Tokens().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	if tok.RevokedAt != nil {
		return nil, domain.ErrTokenRevoked
	}
	if now.After(tok.ExpiresAt) {
		return nil, domain.ErrTokenExpired
	}

	if err := t.store.Tokens().Touch(ctx, tok.ID, now); err != nil {
		return nil, err
	}
	tok.LastUsed = now
	return tok, nil
}

func (t *TokenServiceImpl) Revoke(ctx context.Context, tokenID domain.TokenID) error {
	err := t.store.Tokens().Revoke(ctx, tokenID, time.Now().UTC())
	if errors.Is(err, store.ErrRecordNotFound) {
		return domain.ErrTokenNotFound
	}
	return err
}

// RevokeAll kills every live token for the user, e.g. when an account is
// banned. Returns the number of tokens revoked.
func (t *TokenServiceImpl) RevokeAll(ctx context.Context, userID domain.UserID) (int64, error) {
	return t.store.Tokens().RevokeAllForUser(ctx, userID, time.Now().UTC())
}

func (t *TokenServiceImpl) Tokens(ctx context.Context, userID domain.UserID) ([]*domain.Token, error) {
	return t.store.Tokens().ListByUser(ctx, userID)
}

// Device is the point lookup behind the session device view.
func (t *TokenServiceImpl) Device(ctx context.Context, deviceID domain.DeviceID) (*domain.Device, error) {
	dev, err := t.store.Devices().Get(ctx, deviceID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrDeviceNotFound
	}
	return dev, err
}

func (t *TokenServiceImpl) IssueVerificationCode(ctx context.Context, userID domain.UserID, ttl time.Duration) (*domain.VerificationCode, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	code := &domain.VerificationCode{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      hex.EncodeToString(buf),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := t.store.Verifications().Create(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

func (t *TokenServiceImpl) sign(userID uuid.UUID, tok *domain.Token, now time.Time) (string, error) {
	claims := AccessClaims{
		DID: tok.DeviceID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(tok.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tok.ID.String(), // bind JWT to the tokens row
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

func containsAudience(aud jwt.ClaimStrings, expected string) bool {
	for _, a := range aud {
		if a == expected {
			return true
		}
	}
	return false
}
