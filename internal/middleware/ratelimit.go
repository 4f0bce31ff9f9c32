package middleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"roadside/internal/config"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:cancel"

// tokens refill continuously at refill_per_ms; returns {allowed, remaining, retry_after_ms}
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_per_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_ms')
	local tokens = tonumber(state[1])
	local last_ms = tonumber(state[2])

	if tokens == nil or last_ms == nil then
		tokens = capacity
		last_ms = now_ms
	end

	local elapsed = math.max(0, now_ms - last_ms)
	tokens = math.min(capacity, tokens + elapsed * refill_per_ms)

	local allowed = 0
	local retry_after_ms = 0
	if tokens >= 1 then
		allowed = 1
		tokens = tokens - 1
	elseif refill_per_ms > 0 then
		retry_after_ms = math.ceil((1 - tokens) / refill_per_ms)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_ms', now_ms)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, math.floor(tokens), retry_after_ms }
`)

type rateLimitedResponse struct {
	Reason     string `json:"reason"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimit applies a per-customer token bucket kept in Redis. It is a
// pass-through when disabled, when rdb is nil, or when Redis fails.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log Logger) func(http.Handler) http.Handler {
	if !cfg.RateLimitEnabled || rdb == nil || cfg.RateLimitCapacity <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	ttl := int64(60)
	if cfg.RateLimitRefill > 0 {
		ttl = int64(math.Ceil(float64(cfg.RateLimitCapacity)/cfg.RateLimitRefill)) + 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)

			vals, err := tokenBucket.Run(r.Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.RateLimitCapacity,
				cfg.RateLimitRefill/1000,
				ttl,
			).Int64Slice()
			if err != nil || len(vals) != 3 {
				log.Errorf("middleware.RateLimit: key %s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitCapacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))

			if vals[0] != 1 {
				secs := int(math.Ceil(float64(vals[2]) / 1000))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(rateLimitedResponse{Reason: "too many cancellation attempts, try again later", RetryAfter: secs})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if id := CustomerId(r.Context()); id != "" {
		return rateLimitPrefix + ":customer:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return rateLimitPrefix + ":ip:" + host
}

// NewRedisClient connects to Redis and returns nil when it is not configured or unreachable.
func NewRedisClient(cfg config.RedisConfig, log Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Errorf("middleware.NewRedisClient: redis at %s is unreachable, rate limiting disabled: %s", cfg.RedisAddr, err)
		rdb.Close()
		return nil
	}
	return rdb
}
