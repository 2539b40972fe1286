// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockapi

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/logging"
)

const (
	ctxEmail = "email"
	ctxName  = "name"
)

// tokenClaims is the payload of issued access tokens. Subject is the email.
type tokenClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// ============================================================================
// AUTH MIDDLEWARE
// ============================================================================

// requireBearer rejects requests without a valid access token.
func (s *Server) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeDetail(c, http.StatusUnauthorized, DetailNotAuthenticated)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeDetail(c, http.StatusUnauthorized, DetailNotAuthenticated)
			return
		}

		claims, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			s.log.Debug("token rejected", zap.Error(err))
			writeDetail(c, http.StatusUnauthorized, DetailBadCredentials)
			return
		}

		s.mu.RLock()
		_, known := s.accounts[claims.Subject]
		s.mu.RUnlock()
		if !known {
			writeDetail(c, http.StatusUnauthorized, DetailBadCredentials)
			return
		}

		c.Set(ctxEmail, claims.Subject)
		c.Set(ctxName, claims.Name)
		c.Next()
	}
}

func (s *Server) parseToken(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ============================================================================
// CROSS-CUTTING MIDDLEWARE
// ============================================================================

// requestLogger logs one line per request with credentials redacted.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetHeader(api.RequestIDHeader)),
			logging.Headers(c.Request.Header),
		)
	}
}

// recovery turns a handler panic into a 500.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}

// corsMiddleware allows the web frontend's dev origins.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", api.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// ============================================================================
// RATE LIMITING
// ============================================================================

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{limit: limit, burst: burst, clients: make(map[string]*rate.Limiter)}
}

func (cl *clientLimiter) allow(ip string) bool {
	cl.mu.Lock()
	l, ok := cl.clients[ip]
	if !ok {
		l = rate.NewLimiter(cl.limit, cl.burst)
		cl.clients[ip] = l
	}
	cl.mu.Unlock()
	return l.Allow()
}

func rateLimit(cl *clientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.allow(c.ClientIP()) {
			writeDetail(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
