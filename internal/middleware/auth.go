package middleware

import (
	"context"
	"errors"
	"net/http"

	"qrorder-be/internal/auth"
	"qrorder-be/internal/logger"
	"qrorder-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const staffClaimsKey contextKey = "staffClaims"

const RoleStaff = "staff"

// StaffClaims is the token payload of a store employee. Tokens are issued elsewhere;
// this service only verifies them.
type StaffClaims struct {
	UserID  int64  `json:"user_id"`
	StoreID int64  `json:"store_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Middleware attaches staff claims when the request carries a token. Requests
// without one pass through anonymously; a bad or expired token is rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractAccessToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.Parse(token)
		if err != nil {
			logger.FromCtx(r.Context()).Warn("rejected bearer token", zap.Error(err))
			utils.WriteJSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		ctx := logger.WithFields(WithStaff(r.Context(), claims),
			zap.Int64("staff_id", claims.UserID),
			zap.Int64("staff_store_id", claims.StoreID),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) Parse(tokenStr string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.StoreID <= 0 {
		return nil, errors.New("token has no store")
	}
	return claims, nil
}

// RequireStaff rejects requests that did not carry a valid staff token.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := StaffFromContext(r.Context())
		if !ok || claims.Role != RoleStaff {
			utils.WriteJSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "staff authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithStaff(ctx context.Context, claims *StaffClaims) context.Context {
	return context.WithValue(ctx, staffClaimsKey, claims)
}

func StaffFromContext(ctx context.Context) (*StaffClaims, bool) {
	claims, ok := ctx.Value(staffClaimsKey).(*StaffClaims)
	return claims, ok
}
