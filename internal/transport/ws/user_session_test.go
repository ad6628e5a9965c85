package ws

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"disbroad/internal/domain"
	"disbroad/internal/dto"
)

type stubAccounts struct {
	registerFunc     func(r dto.RegisterRequest) (*domain.User, error)
	authenticateFunc func(email, password string) (*domain.User, error)
	getByIDFunc      func(id domain.UserID) (*domain.User, error)
	listFunc         func(page, pageSize int) ([]*domain.User, error)
	deleteFunc       func(id domain.UserID) (map[string]int64, error)
	setBanFunc       func(id domain.UserID, banned bool) error
}

func (s *stubAccounts) Register(ctx context.Context, r dto.RegisterRequest) (*domain.User, error) {
	if s.registerFunc != nil {
		return s.registerFunc(r)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAccounts) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(id)
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) List(ctx context.Context, page, pageSize int) ([]*domain.User, error) {
	if s.listFunc != nil {
		return s.listFunc(page, pageSize)
	}
	return nil, nil
}

func (s *stubAccounts) Update(ctx context.Context, id domain.UserID, patch dto.UpdateUserRequest) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAccounts) Delete(ctx context.Context, id domain.UserID) (map[string]int64, error) {
	if s.deleteFunc != nil {
		return s.deleteFunc(id)
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if s.authenticateFunc != nil {
		return s.authenticateFunc(email, password)
	}
	return nil, domain.ErrInvalidCredentials
}

func (s *stubAccounts) VerifyEmail(ctx context.Context, code string) error {
	return domain.ErrCodeNotFound
}

func (s *stubAccounts) SetPassword(ctx context.Context, id domain.UserID, password string) error {
	return domain.ErrUserNotFound
}

func (s *stubAccounts) SetPresence(ctx context.Context, id domain.UserID, online bool) error {
	return nil
}

func (s *stubAccounts) SetBan(ctx context.Context, id domain.UserID, banned bool) error {
	if s.setBanFunc != nil {
		return s.setBanFunc(id, banned)
	}
	return domain.ErrUserNotFound
}

type stubTokens struct {
	issueFunc     func(user *domain.User, device dto.DeviceInfo) (*dto.TokenResponse, error)
	tokensFunc    func(userID domain.UserID) ([]*domain.Token, error)
	revokeAllFunc func(userID domain.UserID) (int64, error)
}

func (s *stubTokens) Issue(ctx context.Context, user *domain.User, device dto.DeviceInfo) (*dto.TokenResponse, error) {
	if s.issueFunc != nil {
		return s.issueFunc(user, device)
	}
	return &dto.TokenResponse{AccessToken: "token", ExpiresIn: 3600}, nil
}

func (s *stubTokens) Verify(ctx context.Context, accessToken string) (*domain.Token, error) {
	return nil, domain.ErrTokenNotFound
}

func (s *stubTokens) Revoke(ctx context.Context, tokenID domain.TokenID) error { return nil }

func (s *stubTokens) Device(ctx context.Context, id domain.DeviceID) (*domain.Device, error) {
	return nil, domain.ErrDeviceNotFound
}

func (s *stubTokens) RevokeAll(ctx context.Context, userID domain.UserID) (int64, error) {
	if s.revokeAllFunc != nil {
		return s.revokeAllFunc(userID)
	}
	return 0, nil
}

func (s *stubTokens) Tokens(ctx context.Context, userID domain.UserID) ([]*domain.Token, error) {
	if s.tokensFunc != nil {
		return s.tokensFunc(userID)
	}
	return nil, nil
}

func (s *stubTokens) IssueVerificationCode(ctx context.Context, userID domain.UserID, ttl time.Duration) (*domain.VerificationCode, error) {
	return nil, errors.New("not implemented")
}

func testUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:         uuid.New(),
		Email:      "alice@example.com",
		Username:   "alice",
		Tag:        123456,
		StatusType: domain.StatusOffline,
		LastOnline: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func startUserSession(t *testing.T, accounts *stubAccounts, tokens *stubTokens) *Conn {
	t.Helper()
	server, client := connPair()
	s := NewUserSession(server, accounts, tokens, slog.Default())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(context.Background())
	}()
	t.Cleanup(func() {
		_ = client.conn.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Errorf("session did not stop")
		}
	})
	return client
}

func TestUserSessionNew(t *testing.T) {
	user := testUser()
	accounts := &stubAccounts{
		registerFunc: func(r dto.RegisterRequest) (*domain.User, error) {
			require.Equal(t, "alice", r.Username)
			return user, nil
		},
	}
	client := startUserSession(t, accounts, &stubTokens{})

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "new",
		"data":   map[string]string{"username": "alice", "email": "alice@example.com", "password": "Str0ng!pass"},
	}))
	reply := readReply(t, client)
	require.Equal(t, "new", reply["action"])
	data := reply["data"].(map[string]any)
	require.Equal(t, user.ID.String(), data["id"])
	require.Equal(t, float64(123456), data["tag"])
}

func TestUserSessionNewPolicyViolations(t *testing.T) {
	accounts := &stubAccounts{
		registerFunc: func(r dto.RegisterRequest) (*domain.User, error) {
			return nil, &domain.PolicyError{Violations: []domain.Violation{
				{Code: domain.ViolationUppercase, Condition: "uppercase_count", Minimum: 1},
				{Code: domain.ViolationNumber, Condition: "number_count", Minimum: 1},
			}}
		},
	}
	client := startUserSession(t, accounts, &stubTokens{})

	require.NoError(t, client.WriteJSON(map[string]any{"action": "new", "data": map[string]string{}}))

	// One envelope per violated rule.
	first := readReply(t, client)
	require.Equal(t, domain.ViolationUppercase, first["error"])
	require.Equal(t, map[string]any{"condition": "uppercase_count", "minimum_value": float64(1)}, first["data"])

	second := readReply(t, client)
	require.Equal(t, domain.ViolationNumber, second["error"])
}

func TestUserSessionNewDuplicateEmail(t *testing.T) {
	accounts := &stubAccounts{
		registerFunc: func(r dto.RegisterRequest) (*domain.User, error) {
			return nil, domain.ErrEmailExists
		},
	}
	client := startUserSession(t, accounts, &stubTokens{})

	require.NoError(t, client.WriteJSON(map[string]any{"action": "new", "data": map[string]string{}}))
	reply := readReply(t, client)
	require.Equal(t, "user_exists", reply["error"])
}

func TestUserSessionLoginAndMe(t *testing.T) {
	user := testUser()
	accounts := &stubAccounts{
		authenticateFunc: func(email, password string) (*domain.User, error) {
			if email == user.Email && password == "Str0ng!pass" {
				return user, nil
			}
			return nil, domain.ErrInvalidCredentials
		},
		getByIDFunc: func(id domain.UserID) (*domain.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	client := startUserSession(t, accounts, &stubTokens{})

	// me before login
	require.NoError(t, client.WriteJSON(map[string]string{"action": "me"}))
	require.Equal(t, "not_authenticated", readReply(t, client)["error"])

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "login",
		"data":   map[string]any{"email": user.Email, "password": "Str0ng!pass"},
	}))
	reply := readReply(t, client)
	require.Equal(t, "login", reply["action"])
	require.Equal(t, "token", reply["data"].(map[string]any)["accessToken"])

	require.NoError(t, client.WriteJSON(map[string]string{"action": "me"}))
	me := readReply(t, client)
	require.Equal(t, "me", me["action"])
	require.Equal(t, user.Email, me["data"].(map[string]any)["email"])
}

func TestUserSessionLoginWrongPassword(t *testing.T) {
	client := startUserSession(t, &stubAccounts{}, &stubTokens{})

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "login",
		"data":   map[string]any{"email": "alice@example.com", "password": "nope"},
	}))
	require.Equal(t, "invalid_credentials", readReply(t, client)["error"])
}

func TestUserSessionDetails(t *testing.T) {
	user := testUser()
	accounts := &stubAccounts{
		getByIDFunc: func(id domain.UserID) (*domain.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	client := startUserSession(t, accounts, &stubTokens{})

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "details",
		"data":   map[string]string{"id": user.ID.String()},
	}))
	reply := readReply(t, client)
	require.Equal(t, "details", reply["action"])
	require.Equal(t, user.Username, reply["data"].(map[string]any)["username"])

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "details",
		"data":   map[string]string{"id": uuid.NewString()},
	}))
	require.Equal(t, "user_not_found", readReply(t, client)["error"])
}
