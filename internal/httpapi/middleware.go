package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Kamohel0/green-public-website/internal/auth/token"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
	ctxKeyUserEmail
	ctxKeyCartKey
)

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware emits one structured line per request.
func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", getRequestID(r.Context())))
		})
	}
}

// Auth verifies bearer tokens and resolves the cart key for a request.
type Auth struct {
	tokens *token.Manager
}

func NewAuth(tokens *token.Manager) *Auth {
	return &Auth{tokens: tokens}
}

// Require rejects requests without a valid access token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.bearerClaims(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.Subject)
		ctx = context.WithValue(ctx, ctxKeyUserEmail, claims.Email)
		ctx = context.WithValue(ctx, ctxKeyCartKey, cartKeyForUser(claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CartSession resolves the cart key for routes that serve both shoppers
// with an account and guests. A valid bearer token wins; otherwise the
// guest's X-Session-ID header identifies the cart.
func (a *Auth) CartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := a.bearerClaims(r); ok {
			ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, ctxKeyUserEmail, claims.Email)
			ctx = context.WithValue(ctx, ctxKeyCartKey, cartKeyForUser(claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			respondError(w, http.StatusBadRequest, "missing_session",
				"X-Session-ID header is required for guest carts")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyCartKey, "guest:"+sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) bearerClaims(r *http.Request) (*token.Claims, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}

	claims, err := a.tokens.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func cartKeyForUser(userID string) string {
	return "user:" + userID
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return userID
	}
	return ""
}

func getCartKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(ctxKeyCartKey).(string); ok {
		return key
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}
