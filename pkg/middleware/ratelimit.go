package middleware

import (
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"gearguard/pkg/api"
	apperrors "gearguard/pkg/errors"
)

// IPRateLimiter хранит ограничитель на каждый IP.
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.RWMutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.ips[ip]
	i.mu.RUnlock()
	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if limiter, exists = i.ips[ip]; !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

// RateLimit ограничивает частоту запросов с одного IP. rps <= 0 отключает ограничение.
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	limiter := NewIPRateLimiter(rate.Limit(rps), burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rps <= 0 {
				return next(c)
			}
			if !limiter.GetLimiter(c.RealIP()).Allow() {
				c.Response().Header().Set("Retry-After", "1")
				return api.ErrorResponse(c, apperrors.NewTooManyRequestsError("too many requests"))
			}
			return next(c)
		}
	}
}
