package ws

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"disbroad/internal/domain"
)

func startAdminSession(t *testing.T, accounts *stubAccounts, tokens *stubTokens) *Conn {
	t.Helper()
	if tokens == nil {
		tokens = &stubTokens{}
	}
	server, client := connPair()
	s := NewAdminSession(server, accounts, tokens, slog.Default())
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

func TestAdminSessionGetUsers(t *testing.T) {
	users := []*domain.User{testUser(), testUser()}
	accounts := &stubAccounts{
		listFunc: func(page, pageSize int) ([]*domain.User, error) {
			return users, nil
		},
	}
	client := startAdminSession(t, accounts, nil)

	require.NoError(t, client.WriteJSON(map[string]any{"action": "get_users"}))
	reply := readReply(t, client)
	require.Equal(t, "users", reply["action"])
	listed := reply["data"].([]any)
	require.Len(t, listed, 2)
	require.Equal(t, users[0].ID.String(), listed[0].(map[string]any)["id"])

	// Public views only: no email on the wire.
	require.NotContains(t, listed[0].(map[string]any), "email")
}

func TestAdminSessionDeleteUser(t *testing.T) {
	target := uuid.New()
	accounts := &stubAccounts{
		deleteFunc: func(id domain.UserID) (map[string]int64, error) {
			if id == target {
				return map[string]int64{"users": 1, "tokens": 2}, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	client := startAdminSession(t, accounts, nil)

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "delete_user",
		"data":   map[string]string{"id": target.String()},
	}))
	reply := readReply(t, client)
	require.Equal(t, "delete_user", reply["action"])
	require.Equal(t, float64(2), reply["data"].(map[string]any)["tokens"])

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "delete_user",
		"data":   map[string]string{"id": uuid.NewString()},
	}))
	require.Equal(t, "User does not exist.", readReply(t, client)["error"])
}

func TestAdminSessionDeleteUserMalformedID(t *testing.T) {
	client := startAdminSession(t, &stubAccounts{}, nil)

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "delete_user",
		"data":   map[string]string{"id": "not-a-uuid"},
	}))
	require.Equal(t, "User does not exist.", readReply(t, client)["error"])
}

func TestAdminSessionBanUser(t *testing.T) {
	target := uuid.New()
	var banned []bool
	accounts := &stubAccounts{
		setBanFunc: func(id domain.UserID, b bool) error {
			if id != target {
				return domain.ErrUserNotFound
			}
			banned = append(banned, b)
			return nil
		},
	}
	tokens := &stubTokens{
		revokeAllFunc: func(userID domain.UserID) (int64, error) {
			require.Equal(t, target, userID)
			return 3, nil
		},
	}
	client := startAdminSession(t, accounts, tokens)

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "ban_user",
		"data":   map[string]string{"id": target.String()},
	}))
	reply := readReply(t, client)
	require.Equal(t, "ban_user", reply["action"])
	data := reply["data"].(map[string]any)
	require.Equal(t, true, data["banned"])
	require.Equal(t, float64(3), data["tokens_revoked"])
	require.Equal(t, []bool{true}, banned)

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "unban_user",
		"data":   map[string]string{"id": target.String()},
	}))
	reply = readReply(t, client)
	require.Equal(t, "unban_user", reply["action"])
	require.Equal(t, []bool{true, false}, banned)

	require.NoError(t, client.WriteJSON(map[string]any{
		"action": "ban_user",
		"data":   map[string]string{"id": uuid.NewString()},
	}))
	require.Equal(t, "User does not exist.", readReply(t, client)["error"])
}

func TestAdminSessionRejectsUserActions(t *testing.T) {
	client := startAdminSession(t, &stubAccounts{}, nil)

	// The admin socket does not expose the public user actions.
	require.NoError(t, client.WriteJSON(map[string]string{"action": "login"}))
	require.Equal(t, "Invalid action.", readReply(t, client)["error"])
}
