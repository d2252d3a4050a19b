package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/pkg/logger"
	"github.com/utafrali/shopmesh/pkg/middleware"
)

// Verification failures. Each maps to a 401 with the error text as detail,
// except ErrBlacklistUnavailable which fails closed with a 503.
var (
	ErrMissingToken         = errors.New("authorization header missing")
	ErrMalformedHeader      = errors.New("invalid authorization header")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrBlacklistUnavailable = errors.New("token revocation store unavailable")
)

// Authenticator verifies bearer tokens on non-public requests.
type Authenticator struct {
	tokens    *TokenManager
	blacklist Blacklist
	public    *PublicPaths
	logger    *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *TokenManager, blacklist Blacklist, public *PublicPaths, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, blacklist: blacklist, public: public, logger: logger}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrMalformedHeader
	}
	return token, nil
}

// parseAccess checks the header's token signature, expiry and type without
// consulting the blacklist.
func (a *Authenticator) parseAccess(header string) (string, *Claims, error) {
	token, err := bearerToken(header)
	if err != nil {
		return "", nil, err
	}
	claims, err := a.tokens.Parse(token)
	if err != nil || claims.Type != TokenTypeAccess {
		return "", nil, ErrInvalidToken
	}
	return token, claims, nil
}

// Verify authenticates an Authorization header value and returns the
// principal it names.
func (a *Authenticator) Verify(ctx context.Context, header string) (middleware.Principal, error) {
	token, claims, err := a.parseAccess(header)
	if err != nil {
		return middleware.Anonymous, err
	}
	revoked, err := a.blacklist.Contains(ctx, token)
	if err != nil {
		a.logger.ErrorContext(ctx, "blacklist lookup failed", slog.String("error", err.Error()))
		return middleware.Anonymous, ErrBlacklistUnavailable
	}
	if revoked {
		return middleware.Anonymous, ErrTokenRevoked
	}
	return middleware.NewPrincipal(claims.Subject), nil
}

// Middleware lets public requests through untouched and verifies all
// others. Verified requests carry the principal in their context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.public.IsPublic(r.URL.Path, r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := a.Verify(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeAuthError(w, r, err, a.logger)
			return
		}

		ctx := middleware.WithPrincipal(r.Context(), principal)
		ctx = logger.WithUserID(ctx, principal.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	status, detail := http.StatusUnauthorized, err.Error()
	if errors.Is(err, ErrBlacklistUnavailable) {
		status, detail = http.StatusServiceUnavailable, ErrBlacklistUnavailable.Error()
	}
	logger.WithContext(r.Context(), log).WarnContext(r.Context(), "authentication failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("reason", err.Error()),
	)
	httputil.WriteDetail(w, status, detail)
}
