// Package mware holds the HTTP middleware of the API: session token
// checking, the admin gate and per-client rate limiting. The first two
// put the caller's identity into the request context.
package mware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/inspec-ai/account-service/internal/http-server/response"
	"github.com/inspec-ai/account-service/internal/lib/jwt"
	"github.com/inspec-ai/account-service/internal/lib/sl"
)

type ctxKey string

const (
	emailKey ctxKey = "email"
	roleKey  ctxKey = "role"
)

// GetEmail returns the authenticated account email from the context.
func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

// GetRole returns the authenticated account role from the context.
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

// WithIdentity stores the identity in the context, for the handler tests.
func WithIdentity(ctx context.Context, email, role string) context.Context {
	ctx = context.WithValue(ctx, emailKey, email)
	return context.WithValue(ctx, roleKey, role)
}

// JWTMiddleware checks the bearer token in the Authorization header and
// stores the email and role from its claims into the request context.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "mware.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))

				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))

				return
			}

			ctx := WithIdentity(r.Context(), claims.Email, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects requests whose session role is not admin. Must run
// after JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok || role != "admin" {
				log.Warn("admin route denied",
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))

				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	limiterIdleTTL  = 3 * time.Minute
	limiterSweepLen = 1024
)

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterPool keeps one token bucket per client host. Idle entries are
// swept once the pool grows past limiterSweepLen.
type limiterPool struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*clientLimiter
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	return &limiterPool{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: map[string]*clientLimiter{},
	}
}

func (p *limiterPool) get(host string, now time.Time) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[host]
	if !ok {
		if len(p.clients) >= limiterSweepLen {
			p.sweep(now)
		}
		c = &clientLimiter{lim: rate.NewLimiter(p.rps, p.burst)}
		p.clients[host] = c
	}
	c.lastSeen = now
	return c.lim
}

// sweep drops limiters idle longer than limiterIdleTTL. Caller holds mu.
func (p *limiterPool) sweep(now time.Time) {
	for host, c := range p.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(p.clients, host)
		}
	}
}

// RateLimit limits each client address to rps requests per second with
// the given burst.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.RemoteAddr
			if i := strings.LastIndex(host, ":"); i > 0 {
				host = host[:i]
			}
			if !pool.get(host, time.Now()).Allow() {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))

				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
