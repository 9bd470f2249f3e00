package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/xyber-shield/api-go/utils"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearerToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "success": false})
			c.Abort()
			return
		}

		c.Set(string(utils.UserContextKey), claims)

		c.Next()
	}
}

// OptionalAuth attaches claims when a valid bearer token is present but never
// rejects the request. Report submission uses it to link reports to accounts
// while still allowing anonymous submissions.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := parseBearerToken(c); err == nil {
			c.Set(string(utils.UserContextKey), claims)
		}

		c.Next()
	}
}

func parseBearerToken(c *gin.Context) (*utils.UserClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errors.New("Authorization header is required")
	}

	bearerToken := strings.Split(authHeader, " ")
	if len(bearerToken) != 2 {
		return nil, errors.New("Invalid token format")
	}

	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(bearerToken[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !parsedToken.Valid {
		return nil, errors.New("Invalid token")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, errors.New("Invalid token claims")
	}
	role, _ := claims["role"].(string)

	return &utils.UserClaims{
		UserID: uint(userID),
		Role:   role,
	}, nil
}
