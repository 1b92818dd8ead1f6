package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/Solvium/SolviumAI-sub000/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Context keys for authenticated account information
const (
	AccountIDKey = "account_id"
	UsernameKey  = "username"
	WalletKey    = "wallet_address"
	ClaimsKey    = "claims"
)

// Claims represents the JWT claims structure
type Claims struct {
	AccountID     string `json:"account_id"`
	Username      string `json:"username"`
	WalletAddress string `json:"wallet_address,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT middleware configuration
type JWTConfig struct {
	Secret      string
	TokenPrefix string // "Bearer"
	SkipPaths   []string
}

// DefaultJWTConfig returns default JWT configuration
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:      secret,
		TokenPrefix: "Bearer",
		SkipPaths:   []string{"/health", "/api/health"},
	}
}

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string, logger zerolog.Logger) gin.HandlerFunc {
	return JWTMiddlewareWithConfig(DefaultJWTConfig(secret), logger)
}

// JWTMiddlewareWithConfig creates a JWT middleware with custom configuration
func JWTMiddlewareWithConfig(config JWTConfig, logger zerolog.Logger) gin.HandlerFunc {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// WebSocket clients cannot set headers; accept a query token there
			authHeader = strings.TrimSpace(c.Query("token"))
			if authHeader != "" {
				authHeader = config.TokenPrefix + " " + authHeader
			}
		}
		if authHeader == "" {
			logger.Warn().Str("path", c.Request.URL.Path).Msg("Missing Authorization header")
			abortUnauthorized(c, "Missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != config.TokenPrefix {
			logger.Warn().Msg("Invalid Authorization header format")
			abortUnauthorized(c, "Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(config.Secret), nil
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to parse JWT token")
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			logger.Warn().Msg("Invalid token claims")
			abortUnauthorized(c, "Invalid token claims")
			return
		}
		if claims.AccountID == "" {
			logger.Warn().Msg("Token missing account_id claim")
			abortUnauthorized(c, "Token missing account identity")
			return
		}

		c.Set(AccountIDKey, claims.AccountID)
		c.Set(UsernameKey, claims.Username)
		c.Set(WalletKey, claims.WalletAddress)
		c.Set(ClaimsKey, claims)

		logger.Debug().
			Str("account_id", claims.AccountID).
			Str("username", claims.Username).
			Msg("JWT authentication successful")

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		IsSuccess:  false,
		Error: types.ErrorDetail{
			Timestamp:    time.Now().Format(time.RFC3339),
			Path:         c.Request.URL.Path,
			ErrorMessage: message,
			ErrorCode:    apperrors.ErrUnauthorized,
		},
	})
}

// GetAccountID extracts the authenticated account ID from context
func GetAccountID(c *gin.Context) (string, bool) {
	accountID, exists := c.Get(AccountIDKey)
	if !exists {
		return "", false
	}
	accountIDStr, ok := accountID.(string)
	return accountIDStr, ok
}

// GetUsername extracts the username from context
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(UsernameKey)
	if !exists {
		return "", false
	}
	usernameStr, ok := username.(string)
	return usernameStr, ok
}

// GetWalletAddress extracts the wallet address from context
func GetWalletAddress(c *gin.Context) (string, bool) {
	wallet, exists := c.Get(WalletKey)
	if !exists {
		return "", false
	}
	walletStr, ok := wallet.(string)
	return walletStr, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *gin.Context) (*Claims, bool) {
	claims, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claimsObj, ok := claims.(*Claims)
	return claimsObj, ok
}

// GenerateToken generates a new JWT token for an account
func GenerateToken(secret, accountID, username string, expiration time.Duration) (string, error) {
	return GenerateTokenWithWallet(secret, accountID, username, "", expiration)
}

// GenerateTokenWithWallet generates a new JWT token carrying a wallet address
func GenerateTokenWithWallet(secret, accountID, username, walletAddress string, expiration time.Duration) (string, error) {
	claims := &Claims{
		AccountID:     accountID,
		Username:      username,
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
