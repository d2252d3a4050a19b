package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/httpclient"
	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/pkg/logger"
)

const maxCredentialsBytes = 64 << 10

// CredentialChecker resolves login credentials to a user id.
// *clients.UserClient implements it.
type CredentialChecker interface {
	Login(ctx context.Context, credentials json.RawMessage) (string, error)
}

// Handler serves the gateway's own login and logout endpoints.
type Handler struct {
	auth   *Authenticator
	users  CredentialChecker
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(a *Authenticator, users CredentialChecker, logger *slog.Logger) *Handler {
	return &Handler{auth: a, users: users, logger: logger}
}

// Login forwards the credentials to the user service and mints a token pair
// for the user it returns. User service rejections are relayed with their
// status and JSON body unchanged.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialsBytes))
	if err != nil || !json.Valid(body) {
		httputil.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := h.users.Login(r.Context(), body)
	var rejected *httpclient.PeerError
	if errors.As(err, &rejected) && httpclient.IsClientError(rejected.Status) && json.Valid(rejected.Body) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rejected.Status)
		_, _ = w.Write(rejected.Body)
		return
	}
	if err != nil {
		status := apperrors.HTTPStatus(err)
		detail := "Login failed"
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && status < http.StatusInternalServerError {
			detail = appErr.Message
		}
		if status >= http.StatusInternalServerError {
			logger.WithContext(r.Context(), h.logger).ErrorContext(r.Context(), "login upstream failure",
				slog.String("error", err.Error()),
			)
		}
		httputil.WriteDetail(w, status, detail)
		return
	}

	pair, err := h.auth.tokens.Issue(userID)
	if err != nil {
		logger.WithContext(r.Context(), h.logger).ErrorContext(r.Context(), "issue tokens failed",
			slog.String("error", err.Error()),
		)
		httputil.WriteDetail(w, http.StatusInternalServerError, "Could not issue tokens")
		return
	}

	logger.WithContext(r.Context(), h.logger).InfoContext(r.Context(), "user logged in", slog.String("user_id", userID))
	httputil.WriteJSON(w, http.StatusOK, pair)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the caller's access token and, when given, its refresh
// token. The access token must still be valid, but may already be revoked:
// logging out twice succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, claims, err := h.auth.parseAccess(r.Header.Get("Authorization"))
	if err != nil {
		writeAuthError(w, r, err, h.logger)
		return
	}

	var req logoutRequest
	if r.ContentLength != 0 {
		body, _ := io.ReadAll(io.LimitReader(r.Body, maxCredentialsBytes))
		if len(body) > 0 && json.Unmarshal(body, &req) != nil {
			httputil.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	ctx := r.Context()
	if err := h.auth.blacklist.Add(ctx, token, claims.ExpiresAt.Time); err != nil {
		writeAuthError(w, r, errors.Join(ErrBlacklistUnavailable, err), h.logger)
		return
	}

	if req.RefreshToken != "" {
		// An unparseable refresh token is still revoked for the longest
		// lifetime a refresh token can have.
		expiresAt := time.Now().Add(h.auth.tokens.RefreshTTL())
		if rc, err := h.auth.tokens.Parse(req.RefreshToken); err == nil {
			expiresAt = rc.ExpiresAt.Time
		}
		if err := h.auth.blacklist.Add(ctx, req.RefreshToken, expiresAt); err != nil {
			writeAuthError(w, r, errors.Join(ErrBlacklistUnavailable, err), h.logger)
			return
		}
	}

	logger.WithContext(ctx, h.logger).InfoContext(ctx, "user logged out", slog.String("user_id", claims.Subject))
	httputil.WriteDetail(w, http.StatusOK, "Successfully logged out")
}
