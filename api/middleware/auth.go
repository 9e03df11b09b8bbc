package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gearsupply/gearsupply-backend/api/responses"
	pkgauth "github.com/gearsupply/gearsupply-backend/pkg/auth"
	"github.com/gearsupply/gearsupply-backend/pkg/auth/session"
	"github.com/gearsupply/gearsupply-backend/pkg/config"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
)

// bearerToken pulls the token out of an Authorization header, tolerating a
// missing "Bearer" prefix.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[len("bearer "):])
	}
	return raw
}

// Auth validates the bearer token, confirms the session behind it is still
// alive, and seeds the request context with the caller's identity.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	deny := func(w http.ResponseWriter, r *http.Request, err error) {
		responses.WriteError(r.Context(), logg, w, err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				deny(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				deny(w, r, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				deny(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			// A valid signature is not enough: logout and rotation revoke the
			// session server-side, so the token's JTI must still be live.
			if verifier != nil {
				alive, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					deny(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !alive {
					deny(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := seedIdentity(r.Context(), claims)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func seedIdentity(ctx context.Context, claims *pkgauth.AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
	ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
	if claims.CustomerNumber != "" {
		ctx = context.WithValue(ctx, ctxCustomerNumber, claims.CustomerNumber)
	}
	return ctx
}
