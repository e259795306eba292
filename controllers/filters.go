package controllers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"dsadmin/apperror"
	"dsadmin/response"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestLogger logs every request once it has been handled.
func RequestLogger(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", clientIP(req.Request)),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}

// NewCORS allows the configured origins with credentials, the way browser
// dashboards call the API.
func NewCORS(container *restful.Container, allowedOrigins []string) restful.CrossOriginResourceSharing {
	return restful.CrossOriginResourceSharing{
		AllowedDomains: allowedOrigins,
		AllowedHeaders: []string{"Content-Type", "Accept", "Authorization"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		CookiesAllowed: true,
		MaxAge:         600,
		Container:      container,
	}
}

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   *zap.Logger

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewLoginLimiter allows requestsPerMinute sustained attempts with burst on
// top. A non-positive rate disables limiting.
func NewLoginLimiter(requestsPerMinute, burst int, logger *zap.Logger) *LoginLimiter {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / time.Minute.Seconds())
	}
	if burst < 1 {
		burst = 1
	}
	return &LoginLimiter{rate: limit, burst: burst, logger: logger, lastCleanup: time.Now()}
}

func (l *LoginLimiter) Filter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	key := clientIP(req.Request)
	if !l.limiter(key).Allow() {
		l.logger.Warn("login rate limit exceeded", zap.String("client_ip", key))
		resp.AddHeader("Retry-After", "60")
		response.Error(resp, l.logger, apperror.RateLimited("Too many login attempts. Please try again later."))
		return
	}
	chain.ProcessFilter(req, resp)
}

func (l *LoginLimiter) limiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return v.(*rate.Limiter)
}

// maybeCleanup drops idle limiters (full buckets) at most every five minutes.
func (l *LoginLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastCleanup) < 5*time.Minute {
		return
	}
	l.lastCleanup = time.Now()
	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
