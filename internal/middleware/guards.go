package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	apierrors "ewscli/internal/errors"
	"ewscli/internal/infrastructure"
)

// maxTrackedClients bounds the limiter table; past it the table restarts
const maxTrackedClients = 10000

// RateLimiter is a token bucket per client address
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter allows rps requests per second per client, with bursts of
// burst
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger.With(slog.String("component", "rate_limiter")),
		clients: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.clients[client]
	if !ok {
		if len(rl.clients) >= maxTrackedClients {
			rl.clients = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.clients[client] = l
	}
	return l
}

// retryAfter is the whole seconds until one token refills
func (rl *RateLimiter) retryAfter() int {
	if rl.rps <= 0 || rl.rps >= 1 {
		return 1
	}
	return int(math.Ceil(1 / float64(rl.rps)))
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Handler answers 429 with Retry-After once the client's bucket is empty
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		if rl.limiter(client).Allow() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		rl.logger.WarnContext(ctx, "rate limit exceeded",
			slog.String("client", client),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))

		w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
		limited := apierrors.ErrRateLimitExceeded
		render.Render(w, r, apierrors.NewProblemDetails(limited.StatusCode, limited.ProblemType(), "",
			limited.Message, r.URL.Path).
			WithExtension("error_code", limited.ErrorCode).
			WithExtension("trace_id", infrastructure.GetTraceID(ctx)))
	})
}

// Timeout sets a deadline on the request context. It does not write a
// response itself: handlers observe ctx and the error handler renders
// context.DeadlineExceeded as 504.
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MaxBodySize caps request bodies at limit bytes; zero disables the cap
func MaxBodySize(limit int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
