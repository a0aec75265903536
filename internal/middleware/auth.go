package middleware

import (
	"net/http"
	"strings"

	"github.com/Dan9191/user-service/internal/auth"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware resolves the caller identity from the Authorization header.
// A missing, malformed or rejected token leaves the request anonymous and
// lets it proceed; endpoints that require authentication reject it later at
// the guard.
func AuthMiddleware(validator auth.TokenValidator, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token := strings.TrimPrefix(header, "Bearer ")
				identity, err := validator.Validate(r.Context(), token)
				if err != nil {
					log.Debugf("Token validation failed, proceeding unauthenticated: %v", err)
				} else {
					r = r.WithContext(auth.WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
