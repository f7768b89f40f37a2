package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	httpdto "github.com/vibast-solutions/ms-go-journal/app/dto/http"
	"github.com/vibast-solutions/ms-go-journal/app/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	rateLimitWindow       = time.Minute
	redisRateLimitTimeout = 500 * time.Millisecond
)

// RateLimitStore is an echo rate limiter store that can also say when a
// denied client may try again.
type RateLimitStore interface {
	echomiddleware.RateLimiterStore
	RetryAfter(identifier string) time.Duration
}

// NewMemoryRateLimitStore allows perMinute requests per client, refilled
// evenly over the minute.
func NewMemoryRateLimitStore(perMinute int) RateLimitStore {
	return &memoryRateLimitStore{
		RateLimiterMemoryStore: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / rateLimitWindow.Seconds()),
			Burst:     perMinute,
			ExpiresIn: 3 * rateLimitWindow,
		}),
		perMinute: perMinute,
	}
}

type memoryRateLimitStore struct {
	*echomiddleware.RateLimiterMemoryStore
	perMinute int
}

func (s *memoryRateLimitStore) RetryAfter(string) time.Duration {
	return time.Duration(math.Ceil(rateLimitWindow.Seconds()/float64(s.perMinute))) * time.Second
}

// RedisRateLimitStore counts requests per client in fixed one minute windows
// shared by every instance. Redis failures let the request through.
type RedisRateLimitStore struct {
	client    redis.UniversalClient
	scope     string
	perMinute int
	now       func() time.Time
}

func NewRedisRateLimitStore(client redis.UniversalClient, scope string, perMinute int) *RedisRateLimitStore {
	return &RedisRateLimitStore{
		client:    client,
		scope:     scope,
		perMinute: perMinute,
		now:       time.Now,
	}
}

func (s *RedisRateLimitStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisRateLimitTimeout)
	defer cancel()

	windowStart := s.now().Truncate(rateLimitWindow)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", s.scope, identifier, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rateLimitWindow)
		return nil
	})
	if err != nil {
		logrus.WithError(err).WithField("scope", s.scope).Warn("Rate limit store unavailable, allowing request")
		return true, nil
	}

	return incr.Val() <= int64(s.perMinute), nil
}

func (s *RedisRateLimitStore) RetryAfter(string) time.Duration {
	now := s.now()
	return now.Truncate(rateLimitWindow).Add(rateLimitWindow).Sub(now)
}

// NewRateLimiter limits requests per client IP and answers 429 with
// Retry-After and X-RateLimit-* headers once the limit is hit.
func NewRateLimiter(scope string, perMinute int, store RateLimitStore) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store:               store,
		IdentifierExtractor: ClientIdentifier,
		ErrorHandler: func(c echo.Context, err error) error {
			logrus.WithError(err).Warn("Failed to identify client for rate limiting")
			return c.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "forbidden"})
		},
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			retryAfter := store.RetryAfter(identifier)
			seconds := int64(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}

			h := c.Response().Header()
			h.Set(echo.HeaderRetryAfter, strconv.FormatInt(seconds, 10))
			h.Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			h.Set("X-RateLimit-Remaining", "0")
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix()+seconds, 10))

			metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
			logrus.WithFields(logrus.Fields{
				"scope":  scope,
				"client": identifier,
			}).Warn("Rate limit exceeded")

			return c.JSON(http.StatusTooManyRequests, httpdto.ErrorResponse{
				Error: fmt.Sprintf("rate limit exceeded: %d per minute", perMinute),
			})
		},
	})
}

// IPExtractor decides where client addresses come from. Forwarding headers
// are honoured only when the server sits behind a trusted proxy; otherwise the
// connection's remote address is used and X-Forwarded-For is ignored.
func IPExtractor(trustProxy bool) echo.IPExtractor {
	if trustProxy {
		return echo.ExtractIPFromXFFHeader()
	}
	return echo.ExtractIPDirect()
}

// ClientIdentifier keys a client by the address the server's IPExtractor
// resolves.
func ClientIdentifier(c echo.Context) (string, error) {
	ip := c.RealIP()
	if ip == "" {
		return "", errors.New("client address unavailable")
	}
	return ip, nil
}
