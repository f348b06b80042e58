package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/middleware"
)

type AuthService interface {
	Login(ctx context.Context, clinicID, password, ip string) (*domain.TokenPair, error)
	Logout(ctx context.Context, claims *domain.Claims, ip string) error
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

type AuthHandler struct {
	svc     AuthService
	session config.SessionConfig
	now     func() time.Time
}

func NewAuthHandler(svc AuthService, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{svc: svc, session: session, now: time.Now}
}

type loginRequest struct {
	ClinicID string `json:"clinic_id" binding:"required,max=48"`
	Password string `json:"password" binding:"required,max=256"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login checks clinic credentials, sets the session cookie and returns the tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.ClinicID, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.setSessionCookie(c, pair.AccessToken, pair.ExpiresAt)
	respondOK(c, pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.setSessionCookie(c, pair.AccessToken, pair.ExpiresAt)
	respondOK(c, pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), claims, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, APIResponse[any]{Message: "logged out"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, token, maxAge, "/", "", h.session.CookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.CookieSecure, true)
}
