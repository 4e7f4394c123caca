package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/services"
)

// RequestOTPRequest is the body of POST /auth/otp/request
type RequestOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// AdminLoginRequest is the body of POST /admin/auth/login
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func otpStore() services.OTPStore {
	if store := services.GetOTPStore(); store != nil {
		return store
	}
	return services.InitOTPStore(config.GetConfig())
}

func authService() *services.AuthService {
	return services.NewAuthService(config.GetDB(), otpStore(), services.NewTokenService(config.GetConfig()))
}

func setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	cfg := config.GetConfig()
	maxAge := int(time.Until(expiresAt).Seconds())
	if token == "" {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.SessionCookieName, token, maxAge, "/", "", cfg.IsProduction(), true)
}

// RequestOTP handles POST /api/v1/auth/otp/request - sends a login code to a phone number
func RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := authService().RequestOTP(c.Request.Context(), req.PhoneNumber); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"sent": true})
}

// VerifyOTP handles POST /api/v1/auth/otp/verify - signs a customer in and merges
// the anonymous cart named by X-Session-Id into theirs
func VerifyOTP(c *gin.Context) {
	var req services.VerifyOTPInput
	if !bindJSON(c, &req) {
		return
	}

	session, err := authService().VerifyOTP(c.Request.Context(), req, c.GetHeader(middleware.SessionHeader))
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookie(c, session.Token, session.ExpiresAt)
	respondOK(c, session)
}

// Logout handles POST /api/v1/auth/logout - clears the session cookie
func Logout(c *gin.Context) {
	setSessionCookie(c, "", time.Time{})
	respondOK(c, gin.H{"logged_out": true})
}

// AdminLogin handles POST /api/v1/admin/auth/login - signs a staff member in
func AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := authService().AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookie(c, session.Token, session.ExpiresAt)
	respondOK(c, session)
}
