package middleware

import (
	"context"
	"net/http"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/services"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate satisfies validator.CustomClaims. Roles are re-read from the database
// on admin routes, so the claim is informational only.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// newValidator builds an HS256 validator for tokens minted by services.TokenService
func newValidator(cfg *config.Config) (*validator.Validator, error) {
	secret := []byte(cfg.JWTSecret)
	return validator.New(
		func(ctx context.Context) (interface{}, error) { return secret, nil },
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

func checkJWT(cfg *config.Config, optional bool) gin.HandlerFunc {
	jwtValidator, err := newValidator(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to set up the jwt validator")
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		zlog.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected session token")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":"Authentication required","code":"INVALID_TOKEN"}`)); writeErr != nil {
			zlog.Error().Err(writeErr).Msg("failed to write error response")
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithCredentialsOptional(optional),
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.CookieTokenExtractor(cfg.SessionCookieName),
		)),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			// No claims means an optional route was called without a token
			if token, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims); ok {
				c.Set("user_id", token.RegisteredClaims.Subject)
				c.Set("validated_claims", token)
			}
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
// The token is read from the Authorization header or the session cookie.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	return checkJWT(cfg, false)
}

// OptionalToken validates a token when one is presented and lets anonymous requests through
func OptionalToken(cfg *config.Config) gin.HandlerFunc {
	return checkJWT(cfg, true)
}

// GetUserID extracts the token subject from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// principal returns the kind and id encoded in the token subject
func principal(c *gin.Context) (string, uint, bool) {
	subject, err := GetUserID(c)
	if err != nil {
		return "", 0, false
	}
	kind, id, err := services.ParseSubject(subject)
	if err != nil {
		return "", 0, false
	}
	return kind, id, true
}

// RequireCustomer only lets customer sessions through and stores the customer id
func RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, id, ok := principal(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
			return
		}
		if kind != services.KindCustomer {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
			return
		}
		c.Set("customer_id", id)
		c.Next()
	}
}

// CustomerID returns the id stored by RequireCustomer
func CustomerID(c *gin.Context) (uint, bool) {
	id, ok := c.Get("customer_id")
	if !ok {
		return 0, false
	}
	v, ok := id.(uint)
	return v, ok
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
