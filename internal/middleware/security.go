package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// HoneypotField is a form field hidden from people; bots fill it in.
const HoneypotField = "website"

// SecurityConfig holds security configuration
type SecurityConfig struct {
	FormRateLimit  int
	FormRateWindow time.Duration
	BlockDuration  time.Duration
}

// SecurityMiddleware guards the public forms against bots.
type SecurityMiddleware struct {
	config     SecurityConfig
	logger     *slog.Logger
	blockedIPs map[string]time.Time
	mu         sync.Mutex
	now        func() time.Time
}

func NewSecurityMiddleware(config SecurityConfig, logger *slog.Logger) *SecurityMiddleware {
	if config.BlockDuration <= 0 {
		config.BlockDuration = time.Hour
	}
	return &SecurityMiddleware{
		config:     config,
		logger:     logger,
		blockedIPs: make(map[string]time.Time),
		now:        time.Now,
	}
}

// IsIPBlocked checks if an IP is currently blocked
func (sm *SecurityMiddleware) IsIPBlocked(ip string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if blockedUntil, exists := sm.blockedIPs[ip]; exists {
		if sm.now().Before(blockedUntil) {
			return true
		}
		delete(sm.blockedIPs, ip)
	}
	return false
}

// BlockIP blocks an IP for a specified duration
func (sm *SecurityMiddleware) BlockIP(ip string, duration time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.blockedIPs[ip] = sm.now().Add(duration)
}

// ProtectForm rejects blocked IPs and blocks any client that fills in the
// honeypot field.
func (sm *SecurityMiddleware) ProtectForm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sm.IsIPBlocked(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many failed attempts. Please try again later.",
			})
		}

		if strings.TrimSpace(c.FormValue(HoneypotField)) != "" {
			sm.logger.WarnContext(c.UserContext(), "Honeypot filled, blocking client", "ip", c.IP(), "path", c.Path())
			sm.BlockIP(c.IP(), sm.config.BlockDuration)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request",
			})
		}
		return c.Next()
	}
}

// FormLimiter throttles form submissions per client IP.
func (sm *SecurityMiddleware) FormLimiter() fiber.Handler {
	max := sm.config.FormRateLimit
	if max <= 0 {
		max = 10
	}
	window := sm.config.FormRateWindow
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many submissions. Please try again later.",
			})
		},
	})
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data: https:; "+
				"frame-ancestors 'none'; "+
				"form-action 'self';")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Strict Transport Security (only for HTTPS)
		if c.Protocol() == "https" {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		return c.Next()
	}
}
