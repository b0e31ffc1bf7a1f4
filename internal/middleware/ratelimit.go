package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxLocalClients bounds the in-process limiter table
const maxLocalClients = 10000

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// Decision is the outcome of a single limiter check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a client may issue another request
type Limiter interface {
	Allow(ctx context.Context, clientID string) (Decision, error)
}

// RedisLimiter is a fixed-window counter shared by every replica
type RedisLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

// NewRedisLimiter creates a Redis backed limiter
func NewRedisLimiter(client *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{client: client, config: config}
}

func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	key := fmt.Sprintf("%s:%s", l.config.KeyPrefix, clientID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// Expiry is set on the first hit of each window
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	d := Decision{Limit: l.config.RequestsPerWindow}
	if count > int64(l.config.RequestsPerWindow) {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil || ttl <= 0 {
			ttl = l.config.Window
		}
		d.RetryAfter = ttl
		return d, nil
	}

	d.Allowed = true
	d.Remaining = l.config.RequestsPerWindow - int(count)
	return d, nil
}

// LocalLimiter is a per-process token bucket per client, used when Redis is
// not reachable. It is best-effort: the table holds at most maxClients
// buckets, and a new client evicts only the least recently seen one, whose
// budget starts over if it returns.
type LocalLimiter struct {
	mu         sync.Mutex
	clients    map[string]*localClient
	maxClients int
	tick       uint64
	config     RateLimitConfig
	every      rate.Limit
}

type localClient struct {
	lim  *rate.Limiter
	seen uint64
}

// NewLocalLimiter creates an in-process limiter
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	if config.RequestsPerWindow < 1 {
		config.RequestsPerWindow = 1
	}
	interval := config.Window / time.Duration(config.RequestsPerWindow)
	return &LocalLimiter{
		clients:    make(map[string]*localClient),
		maxClients: maxLocalClients,
		config:     config,
		every:      rate.Every(interval),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, clientID string) (Decision, error) {
	lim := l.limiter(clientID)

	d := Decision{Limit: l.config.RequestsPerWindow}
	if !lim.Allow() {
		d.RetryAfter = l.config.Window / time.Duration(l.config.RequestsPerWindow)
		return d, nil
	}

	d.Allowed = true
	if tokens := int(lim.Tokens()); tokens > 0 {
		d.Remaining = tokens
	}
	return d, nil
}

func (l *LocalLimiter) limiter(clientID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tick++
	c, ok := l.clients[clientID]
	if !ok {
		if len(l.clients) >= l.maxClients {
			l.evictOldest()
		}
		c = &localClient{lim: rate.NewLimiter(l.every, l.config.RequestsPerWindow)}
		l.clients[clientID] = c
	}
	c.seen = l.tick
	return c.lim
}

// evictOldest must be called with mu held
func (l *LocalLimiter) evictOldest() {
	var (
		oldestID string
		oldest   uint64
		found    bool
	)
	for id, c := range l.clients {
		if !found || c.seen < oldest {
			oldestID, oldest, found = id, c.seen, true
		}
	}
	if found {
		delete(l.clients, oldestID)
	}
}

// RateLimitMiddleware rejects clients that exceed the limiter's budget. Limiter
// failures let the request through.
func RateLimitMiddleware(limiter Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientAddress(r)

			d, err := limiter.Allow(r.Context(), clientID)
			if err != nil {
				logger.Error("Failed to check rate limit",
					zap.Error(err),
					zap.String("client_id", clientID),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				retry := int(d.RetryAfter.Round(time.Second).Seconds())
				if retry < 1 {
					retry = 1
				}
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.Int("limit", d.Limit),
				)
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(d.RetryAfter).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
