// Package middleware holds the gin middleware shared by every API route.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	claimsKey    = "session_claims"
)

// RequestIDFrom returns the request ID assigned by RequestID.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// ClaimsFrom returns the session of the authenticated clinic, if any.
func ClaimsFrom(c *gin.Context) (*domain.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.Claims)
	return claims, ok
}
