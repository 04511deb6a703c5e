package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const claimsKey = "claims"

type TokenParser interface {
	ParseToken(token string) (*users.Claims, error)
}

// RequireAdmin lets a request through only with a valid bearer token whose
// role is admin.
func RequireAdmin(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if claims.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ParseRate reads rates like "10-1m" or "5-30s": a request limit and the
// period it applies to.
func ParseRate(s string) (limiter.Rate, error) {
	limitStr, periodStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return limiter.Rate{}, fmt.Errorf("invalid rate format: %q", s)
	}
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid rate limit: %q", limitStr)
	}
	period, err := time.ParseDuration(periodStr)
	if err != nil || period <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid rate period: %q", periodStr)
	}
	return limiter.Rate{Limit: limit, Period: period}, nil
}

// NewLimiterStore keeps counters in Redis when a client is given, otherwise
// in process memory.
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	opts := limiter.StoreOptions{Prefix: "rate_limiter", MaxRetry: 3}
	if client == nil {
		return memorystore.NewStoreWithOptions(opts), nil
	}
	store, err := redisstore.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit limits requests per client IP. route keeps counters of
// different routes apart in a shared store.
func RateLimit(store limiter.Store, rate, route string) (gin.HandlerFunc, error) {
	r, err := ParseRate(rate)
	if err != nil {
		return nil, err
	}
	return ginlimiter.NewMiddleware(limiter.New(store, r),
		ginlimiter.WithKeyGetter(func(c *gin.Context) string {
			return route + ":" + c.ClientIP()
		}),
		ginlimiter.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
		}),
	), nil
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}).Info("http request")
	}
}
