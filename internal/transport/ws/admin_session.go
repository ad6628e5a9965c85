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

// AdminSession serves the owner socket. Callers must run Handshake on the
// connection before starting the session.
type AdminSession struct {
	session
	accounts service.AccountService
	tokens   service.TokenService
}

func NewAdminSession(conn *Conn, accounts service.AccountService, tokens service.TokenService, log *slog.Logger) *AdminSession {
	s := &AdminSession{
		session:  session{conn: conn, log: log, endpoint: "admin"},
		accounts: accounts,
		tokens:   tokens,
	}
	s.handlers = map[string]handlerFunc{
		"get_users":   s.handleGetUsers,
		"delete_user": s.handleDeleteUser,
		"ban_user":    s.handleBanUser,
		"unban_user":  s.handleUnbanUser,
	}
	return s
}

func (s *AdminSession) Run(ctx context.Context) { s.run(ctx) }

func (s *AdminSession) handleGetUsers(ctx context.Context, data json.RawMessage) error {
	var req struct {
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return s.conn.WriteJSON(map[string]string{"action": "users", "error": "invalid_data"})
		}
	}
	users, err := s.accounts.List(ctx, req.Page, req.PageSize)
	if err != nil {
		return err
	}
	views := make([]dto.PublicUser, 0, len(users))
	for _, u := range users {
		views = append(views, dto.NewPublicUser(u))
	}
	return s.conn.WriteJSON(map[string]any{"action": "users", "data": views})
}

func (s *AdminSession) handleDeleteUser(ctx context.Context, data json.RawMessage) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return s.conn.WriteJSON(map[string]string{"action": "delete_user", "error": "invalid_data"})
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return s.conn.WriteJSON(map[string]string{"action": "delete_user", "error": "User does not exist."})
	}
	counts, err := s.accounts.Delete(ctx, domain.UserID(id))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return s.conn.WriteJSON(map[string]string{"action": "delete_user", "error": "User does not exist."})
		}
		return err
	}
	s.log.Info("user deleted over admin socket", "user_id", req.ID)
	return s.conn.WriteJSON(map[string]any{"action": "delete_user", "data": counts})
}

// handleBanUser flags the account and kills its live tokens so the ban takes
// effect immediately, not on next login.
func (s *AdminSession) handleBanUser(ctx context.Context, data json.RawMessage) error {
	return s.setBan(ctx, data, "ban_user", true)
}

func (s *AdminSession) handleUnbanUser(ctx context.Context, data json.RawMessage) error {
	return s.setBan(ctx, data, "unban_user", false)
}

func (s *AdminSession) setBan(ctx context.Context, data json.RawMessage, action string, banned bool) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return s.conn.WriteJSON(map[string]string{"action": action, "error": "invalid_data"})
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return s.conn.WriteJSON(map[string]string{"action": action, "error": "User does not exist."})
	}
	if err := s.accounts.SetBan(ctx, domain.UserID(id), banned); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return s.conn.WriteJSON(map[string]string{"action": action, "error": "User does not exist."})
		}
		return err
	}
	var revoked int64
	if banned {
		if revoked, err = s.tokens.RevokeAll(ctx, domain.UserID(id)); err != nil {
			return err
		}
	}
	s.log.Info("ban state changed over admin socket", "user_id", req.ID, "banned", banned, "tokens_revoked", revoked)
	return s.conn.WriteJSON(map[string]any{"action": action, "data": map[string]any{"id": req.ID, "banned": banned, "tokens_revoked": revoked}})
}
