package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"disbroad/internal/domain"
	"disbroad/internal/dto"
	"disbroad/internal/service"
)

// UserSession serves the public user socket. It starts unauthenticated;
// login binds the session to a user and unlocks the owner-only actions.
type UserSession struct {
	session
	accounts service.AccountService
	tokens   service.TokenService

	user        *domain.User
	accessToken string
}

func NewUserSession(conn *Conn, accounts service.AccountService, tokens service.TokenService, log *slog.Logger) *UserSession {
	s := &UserSession{
		session:  session{conn: conn, log: log, endpoint: "users"},
		accounts: accounts,
		tokens:   tokens,
	}
	s.handlers = map[string]handlerFunc{
		"new":     s.handleNew,
		"login":   s.handleLogin,
		"logout":  s.handleLogout,
		"me":      s.handleMe,
		"details": s.handleDetails,
	}
	return s
}

// Run serves the session until the peer disconnects. A logged-in user is
// marked offline on the way out.
func (s *UserSession) Run(ctx context.Context) {
	s.run(ctx)
	if s.user != nil {
		// The request context is gone once the socket drops.
		if err := s.accounts.SetPresence(context.WithoutCancel(ctx), s.user.ID, false); err != nil {
			s.log.Warn("failed to mark user offline", "user_id", s.user.ID, "error", err)
		}
	}
}

func (s *UserSession) handleNew(ctx context.Context, data json.RawMessage) error {
	var req dto.RegisterRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return s.conn.WriteJSON(map[string]string{"action": "new", "error": "invalid_data"})
	}
	user, err := s.accounts.Register(ctx, req)
	if err != nil {
		var policyErr *domain.PolicyError
		switch {
		case errors.As(err, &policyErr):
			for _, v := range policyErr.Violations {
				if werr := s.conn.WriteJSON(map[string]any{
					"action": "new",
					"error":  v.Code,
					"data":   violationData(v),
				}); werr != nil {
					return werr
				}
			}
			return nil
		case errors.Is(err, domain.ErrEmailExists):
			return s.conn.WriteJSON(map[string]string{"action": "new", "error": "user_exists"})
		case errors.Is(err, domain.ErrTagExhausted):
			return s.conn.WriteJSON(map[string]string{"action": "new", "error": "tag_exhausted"})
		}
		return err
	}
	return s.conn.WriteJSON(map[string]any{"action": "new", "data": dto.NewPublicUser(user)})
}

func violationData(v domain.Violation) map[string]any {
	if v.Code == domain.ViolationLength {
		return map[string]any{"min_len": v.MinLen, "max_len": v.MaxLen}
	}
	return map[string]any{"condition": v.Condition, "minimum_value": v.Minimum}
}

func (s *UserSession) handleLogin(ctx context.Context, data json.RawMessage) error {
	var req dto.LoginRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return s.conn.WriteJSON(map[string]string{"action": "login", "error": "invalid_data"})
	}
	user, err := s.accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return s.conn.WriteJSON(map[string]string{"action": "login", "error": "user_not_found"})
		case errors.Is(err, domain.ErrUserBanned):
			return s.conn.WriteJSON(map[string]string{"action": "login", "error": "user_banned"})
		case errors.Is(err, domain.ErrInvalidCredentials):
			return s.conn.WriteJSON(map[string]string{"action": "login", "error": "invalid_credentials"})
		}
		return err
	}
	var device dto.DeviceInfo
	if req.Device != nil {
		device = *req.Device
	}
	resp, err := s.tokens.Issue(ctx, user, device)
	if err != nil {
		return err
	}
	s.user = user
	s.accessToken = resp.AccessToken
	if err := s.accounts.SetPresence(ctx, user.ID, true); err != nil {
		s.log.Warn("failed to mark user online", "user_id", user.ID, "error", err)
	}
	return s.conn.WriteJSON(map[string]any{"action": "login", "data": resp})
}

func (s *UserSession) handleLogout(ctx context.Context, data json.RawMessage) error {
	var req struct {
		Token string `json:"token"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return s.conn.WriteJSON(map[string]string{"action": "logout", "error": "invalid_data"})
		}
	}
	accessToken := req.Token
	if accessToken == "" {
		accessToken = s.accessToken
	}
	if accessToken == "" {
		return s.conn.WriteJSON(map[string]string{"action": "logout", "error": "not_authenticated"})
	}
	token, err := s.tokens.Verify(ctx, accessToken)
	if err != nil {
		return s.conn.WriteJSON(map[string]string{"action": "logout", "error": "invalid_token"})
	}
	if err := s.tokens.Revoke(ctx, token.ID); err != nil {
		return err
	}
	if accessToken == s.accessToken && s.user != nil {
		if err := s.accounts.SetPresence(ctx, s.user.ID, false); err != nil {
			s.log.Warn("failed to mark user offline", "user_id", s.user.ID, "error", err)
		}
		s.user = nil
		s.accessToken = ""
	}
	return s.conn.WriteJSON(map[string]string{"action": "logout", "message": "Logged out."})
}

func (s *UserSession) handleMe(ctx context.Context, _ json.RawMessage) error {
	if s.user == nil {
		return s.conn.WriteJSON(map[string]string{"action": "me", "error": "not_authenticated"})
	}
	user, err := s.accounts.GetByID(ctx, s.user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return s.conn.WriteJSON(map[string]string{"action": "me", "error": "user_not_found"})
		}
		return err
	}
	tokens, err := s.tokens.Tokens(ctx, user.ID)
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(map[string]any{"action": "me", "data": dto.NewPrivateUser(user, tokens)})
}

func (s *UserSession) handleDetails(ctx context.Context, data json.RawMessage) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return s.conn.WriteJSON(map[string]string{"action": "details", "error": "invalid_data"})
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return s.conn.WriteJSON(map[string]string{"action": "details", "error": "invalid_data"})
	}
	user, err := s.accounts.GetByID(ctx, domain.UserID(id))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return s.conn.WriteJSON(map[string]string{"action": "details", "error": "user_not_found"})
		}
		return err
	}
	return s.conn.WriteJSON(map[string]any{"action": "details", "data": dto.NewPublicUser(user)})
}
