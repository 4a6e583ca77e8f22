package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/garagehub/garagehub-api/models"
)

// AdminMiddleware verifies the admin-scoped JWT issued by the admin login
// endpoint and attaches the admin principal to the request context
func AdminMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			header := r.Header.Get("Authorization")
			parts := strings.Split(header, "Bearer ")
			if len(parts) != 2 {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				zap.S().Warnw("invalid admin token", "url", r.URL)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}

			if scope, _ := claims["scope"].(string); scope != "admin" {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": "not permitted", "code": "NOT_PERMITTED"}`))
				return
			}

			sub, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			principal := &models.Principal{ID: sub, Email: email}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
