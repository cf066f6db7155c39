package middleware

import (
	"context"
	"net/http"
	"strings"

	"hostel-ts/internal/config"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/utils"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	CtxUserID ctxKey = "uid"
	CtxEmail  ctxKey = "email"
	CtxRole   ctxKey = "role"
)

// WithAuth resolves the session token to a user and, when a profile exists, its
// role. Requests without a valid token pass through anonymous.
func WithAuth(log zerolog.Logger, cfg config.Config, profiles repository.ProfileRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Read JWT from cookie "session" or Authorization: Bearer
			var tok string
			if c, err := r.Cookie("session"); err == nil {
				tok = c.Value
			} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tok = strings.TrimPrefix(h, "Bearer ")
			}

			if tok == "" {
				next.ServeHTTP(w, r) // unauthenticated; handlers can decide
				return
			}

			claims, err := utils.ParseJWT(cfg.SessionSecret, tok)
			if err != nil {
				// clear broken/expired cookie so it stops being sent
				http.SetCookie(w, &http.Cookie{
					Name:     "session",
					Value:    "",
					Path:     "/",
					HttpOnly: true,
					MaxAge:   -1,
				})
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserID, claims.UserID)
			ctx = context.WithValue(ctx, CtxEmail, claims.Email)

			// The role is read per request so promotions apply without a new token.
			p, err := profiles.Get(ctx, claims.UserID)
			if err != nil {
				log.Error().Err(err).Str("user", claims.UserID).Msg("role lookup failed")
			} else if p != nil {
				ctx = context.WithValue(ctx, CtxRole, string(p.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
