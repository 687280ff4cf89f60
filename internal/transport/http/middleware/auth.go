package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/transport/http/response"
)

type ctxKey string

const ctxActor ctxKey = "actor"

// Claims are issued by the identity service; role is donor or organizer.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
	issuer string
}

func NewAuth(secret, issuer string) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (a *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.parse(r)
		if err != nil {
			zlog.Debug().Err(err).Str("path", r.URL.Path).Msg("auth rejected")
			response.Fail(
				w,
				http.StatusUnauthorized,
				"unauthorized",
				"unauthorized",
				map[string]string{"reason": err.Error()},
				response.RequestIDFromRequest(r),
			)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (a *AuthMiddleware) parse(r *http.Request) (domain.Actor, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(h, "Bearer ") {
		return domain.Actor{}, errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return domain.Actor{}, err
	}
	if !tok.Valid {
		return domain.Actor{}, errors.New("invalid token")
	}

	if a.issuer != "" && claims.Issuer != a.issuer {
		return domain.Actor{}, errors.New("invalid issuer")
	}
	uid := strings.TrimSpace(claims.UserID)
	if uid == "" {
		return domain.Actor{}, errors.New("missing uid")
	}

	// tokens without a role belong to donors
	roleClaim := claims.Role
	if strings.TrimSpace(roleClaim) == "" {
		roleClaim = string(domain.RoleDonor)
	}
	role, ok := domain.ParseRole(roleClaim)
	if !ok {
		return domain.Actor{}, errors.New("unknown role")
	}
	return domain.Actor{ID: uid, Role: role}, nil
}

func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, ctxActor, a)
}

// Actor returns the authenticated caller, or the zero Actor on public routes.
func Actor(r *http.Request) domain.Actor {
	if v, ok := r.Context().Value(ctxActor).(domain.Actor); ok {
		return v
	}
	return domain.Actor{}
}
