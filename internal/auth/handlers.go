package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/bookshelf/internal/config"
)

// AuditLogger records authentication events.
type AuditLogger interface {
	LogAuth(userID uint, action, ipAddr, userAgent string, err error)
}

type registerRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// AuthController handles the registration and login endpoints.
type AuthController struct {
	service     *Service
	rateLimiter *RateLimiter
	audit       AuditLogger
}

// NewAuthController creates a new authentication controller. audit may be nil.
func NewAuthController(service *Service, cfg config.Auth, audit AuditLogger) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:     service,
		rateLimiter: rateLimiter,
		audit:       audit,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.POST("/register", ac.Register)
	router.POST("/login", ac.Login)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// Register creates an account and answers with a plain-text confirmation.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := ac.service.Register(req.Name, req.Email, req.Password)
	if err != nil {
		ac.logAuth(c, 0, "register", err)
		switch {
		case IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	ac.logAuth(c, user.ID, "register", nil)
	c.String(http.StatusCreated, "User registered successfully")
}

// Login checks credentials and returns a bearer token with the user summary.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	clientIP := c.ClientIP()

	// Check rate limiting before attempting authentication
	if ac.rateLimiter != nil && req.Email != "" {
		allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email)
		if !allowed {
			c.Header("Retry-After", RetryAfterSeconds(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many login attempts",
				"retry_after": retryAfter.String(),
			})
			return
		}
	}

	token, user, err := ac.service.Login(req.Email, req.Password)
	if err != nil {
		var userID uint
		if user != nil {
			userID = user.ID
		}
		ac.logAuth(c, userID, "login", err)

		switch {
		case IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUserNotFound):
			ac.recordFailure(clientIP, req.Email)
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, ErrInvalidPassword):
			ac.recordFailure(clientIP, req.Email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		default:
			log.Error().Err(err).Msg("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	}
	ac.logAuth(c, user.ID, "login", nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.Summary(),
	})
}

func (ac *AuthController) recordFailure(ip, email string) {
	if ac.rateLimiter == nil {
		return
	}
	if locked, _ := ac.rateLimiter.RecordFailure(ip, email); locked {
		log.Warn().Str("ip", ip).Msg("login locked after repeated failures")
	}
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, err error) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), err)
}
