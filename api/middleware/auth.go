package middleware

import (
	"net/http"
	"strings"

	"github.com/janmanch/janmanch-backend/api/responses"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/identity"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

// Auth validates a Firebase bearer token and seeds the request context with
// the provider identity.
func Auth(verifier identity.TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if verifier == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "identity provider unavailable"))
				return
			}

			decoded, err := verifier.VerifyIDToken(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if decoded == nil || decoded.UID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing provider identity"))
				return
			}

			ctx := WithFirebaseID(r.Context(), decoded.UID)
			if userID, ok := decoded.Claims["user_id"].(string); ok && userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			if logg != nil {
				ctx = logg.WithField(ctx, "firebase_id", decoded.UID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
