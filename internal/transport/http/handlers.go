package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"disbroad/internal/domain"
	"disbroad/internal/dto"
	"disbroad/internal/netutil"
	"disbroad/internal/observability/metrics"
	"disbroad/internal/service"
)

// StatusPolicyViolation is a non-standard code kept for compatibility with
// existing clients that key registration feedback off it.
const StatusPolicyViolation = 430

func clientIP(r *http.Request) string {
	// If you put the service behind a proxy later, these will matter.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// XFF can be a list: client, proxy1, proxy2...
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if normalized, ok := netutil.NormalizeIP(ip); ok {
			return normalized
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		if normalized, ok := netutil.NormalizeIP(xr); ok {
			return normalized
		}
	}
	if normalized, ok := netutil.NormalizeIP(r.RemoteAddr); ok {
		return normalized
	}
	return r.RemoteAddr
}

type userHandler struct {
	accounts        service.AccountService
	tokens          service.TokenService
	verificationTTL time.Duration
	log             *slog.Logger
}

func (h *userHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid request body.")
		return
	}
	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		writeUserError(w, err)
		return
	}
	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()

	// Code delivery (mail, etc.) happens out of band; registration only mints
	// it. In dev setups the debug log is the delivery channel.
	if code, err := h.tokens.IssueVerificationCode(r.Context(), user.ID, h.verificationTTL); err != nil {
		h.log.Error("failed to issue verification code", "user_id", user.ID, "error", err)
	} else {
		h.log.Debug("verification code issued", "user_id", user.ID, "code", code.Code, "expires_at", code.ExpiresAt)
	}

	// The creator gets their own private view back; a fresh account has no
	// tokens yet.
	writeJSON(w, http.StatusCreated, dto.NewPrivateUser(user, nil))
}

func (h *userHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid request body.")
		return
	}
	user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		writeUserError(w, err)
		return
	}
	var device dto.DeviceInfo
	if req.Device != nil {
		device = *req.Device
	}
	if device.IP == "" {
		device.IP = clientIP(r)
	}
	resp, err := h.tokens.Issue(r.Context(), user, device)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		writeUserError(w, err)
		return
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid user id.")
		return
	}
	user, err := h.accounts.GetByID(r.Context(), domain.UserID(id))
	if err != nil {
		writeUserError(w, err)
		return
	}
	// Owners get the private view of their own record.
	if token, ok := tokenFromContext(r.Context()); ok && token.UserID == user.ID {
		tokens, err := h.tokens.Tokens(r.Context(), user.ID)
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewPrivateUser(user, tokens))
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPublicUser(user))
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	users, err := h.accounts.List(r.Context(), page, pageSize)
	if err != nil {
		writeUserError(w, err)
		return
	}
	views := make([]dto.PublicUser, 0, len(users))
	for _, u := range users {
		views = append(views, dto.NewPublicUser(u))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *userHandler) update(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication required.")
		return
	}
	var patch dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid request body.")
		return
	}
	user, err := h.accounts.Update(r.Context(), token.UserID, patch)
	if err != nil {
		writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPublicUser(user))
}

func (h *userHandler) getDevice(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication required.")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid device id.")
		return
	}
	dev, err := h.tokens.Device(r.Context(), domain.DeviceID(id))
	if err != nil {
		writeUserError(w, err)
		return
	}
	// Devices are only visible to their owner; anyone else sees a miss.
	if dev.UserID != token.UserID {
		writeUserError(w, domain.ErrDeviceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (h *userHandler) setPassword(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication required.")
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid request body.")
		return
	}
	if err := h.accounts.SetPassword(r.Context(), token.UserID, req.Password); err != nil {
		writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (h *userHandler) delete(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication required.")
		return
	}
	counts, err := h.accounts.Delete(r.Context(), token.UserID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": counts})
}

func (h *userHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid request body.")
		return
	}
	if err := h.accounts.VerifyEmail(r.Context(), req.Code); err != nil {
		writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified."})
}

type fileHandler struct {
	files service.FileService
}

func (h *fileHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid file id.")
		return
	}
	file, err := h.files.Get(r.Context(), domain.FileID(id))
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, "file_not_found", "File does not exist.")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error.")
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *fileHandler) create(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication required.")
		return
	}
	var req struct {
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_data", "Invalid request body.")
		return
	}
	file, err := h.files.Create(r.Context(), token.UserID, req.Name, req.ContentType, req.Size)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyFileName) {
			writeError(w, http.StatusBadRequest, "invalid_data", err.Error())
			return
		}
		slog.Error("file create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error.")
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (h *fileHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication required.")
		return
	}
	files, err := h.files.ListByCreator(r.Context(), token.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error.")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func writeUserError(w http.ResponseWriter, err error) {
	var policyErr *domain.PolicyError
	switch {
	case errors.As(err, &policyErr):
		writeJSON(w, StatusPolicyViolation, map[string]any{
			"error":      "password_policy_violated",
			"violations": policyErr.Violations,
		})
	case errors.Is(err, domain.ErrEmailExists):
		writeError(w, http.StatusConflict, "user_exists", "A user with this email already exists.")
	case errors.Is(err, domain.ErrTagExhausted):
		writeError(w, http.StatusConflict, "tag_exhausted", "No discriminator tag available for this username.")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "User does not exist.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusForbidden, "invalid_credentials", "Invalid email or password.")
	case errors.Is(err, domain.ErrUserBanned):
		writeError(w, http.StatusForbidden, "user_banned", "This account is banned.")
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "device_not_found", "Device does not exist.")
	case errors.Is(err, domain.ErrCodeNotFound):
		writeError(w, http.StatusNotFound, "code_not_found", "Verification code does not exist.")
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusGone, "code_expired", "Verification code has expired.")
	case errors.Is(err, domain.ErrTokenRevoked), errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenNotFound):
		writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid or expired token.")
	case errors.Is(err, domain.ErrEmptyCredential), errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidIcon):
		writeError(w, http.StatusBadRequest, "invalid_data", err.Error())
	default:
		// Anything unrecognized is a server-side failure; the error text may
		// carry driver internals and stays out of the response.
		slog.Error("unhandled error in user handler", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error.")
	}
}
