package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xyber-shield/api-go/config"
	"github.com/xyber-shield/api-go/models"
	"github.com/xyber-shield/api-go/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = time.Hour * 24 * 7
	refreshTokenTTL = time.Hour * 24 * 30
)

type AuthController struct {
	DB           *gorm.DB
	GoogleConfig *config.GoogleConfig
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{
		DB:           db,
		GoogleConfig: config.NewGoogleConfig(),
	}
}

// validatePseudoPattern validates pseudo format and constraints
func validatePseudoPattern(pseudo string) error {
	trimmed := strings.TrimSpace(pseudo)

	if len(trimmed) < 3 {
		return fmt.Errorf("pseudo must be at least 3 characters long")
	}

	if len(trimmed) > 20 {
		return fmt.Errorf("pseudo must be no more than 20 characters long")
	}

	startsWithLetter, _ := regexp.MatchString(`^[a-zA-Z]`, trimmed)
	if !startsWithLetter {
		return fmt.Errorf("pseudo must start with a letter")
	}

	validPattern, _ := regexp.MatchString(`^[a-zA-Z][a-zA-Z0-9_]*$`, trimmed)
	if !validPattern {
		return fmt.Errorf("pseudo can only contain letters, numbers, and underscores")
	}

	reserved := []string{"admin", "root", "api", "www", "mail", "support", "test", "demo", "user", "guest", "null", "undefined", "xybershield"}
	for _, reservedWord := range reserved {
		if strings.ToLower(trimmed) == reservedWord {
			return fmt.Errorf("this pseudo is reserved and cannot be used")
		}
	}

	return nil
}

func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Pseudo   string `json:"pseudo" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	if err := validatePseudoPattern(input.Pseudo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password", "success": false})
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Pseudo:   strings.TrimSpace(input.Pseudo),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: string(hashedPassword),
		Role:     "user",
		IsActive: true,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Pseudo or email already exists", "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create user", "success": false})
		return
	}

	recordActivity(ac.DB, c, &user.ID, models.ActivityRegister, "New account registered")

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user": gin.H{
			"id":     user.ID,
			"name":   user.Name,
			"pseudo": user.Pseudo,
			"email":  user.Email,
		},
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "success": false})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated", "success": false})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "success": false})
		return
	}

	accessToken, refreshToken, err := ac.issueTokens(c, &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	now := time.Now()
	ac.DB.Model(&user).Update("last_login", now)

	recordActivity(ac.DB, c, &user.ID, models.ActivityLogin, "User logged in")

	c.JSON(http.StatusOK, gin.H{
		"token_type":    "Bearer",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          gin.H{"id": user.ID, "email": user.Email, "pseudo": user.Pseudo, "profilePicture": user.ProfilePicture},
		"success":       true,
	})
}

func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	var session models.Session
	if err := ac.DB.Where("token_hash = ? AND is_active = ?", utils.HashToken(input.RefreshToken), true).First(&session).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token", "success": false})
		return
	}

	if time.Now().After(session.ExpiresAt) {
		ac.DB.Model(&session).Update("is_active", false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired", "success": false})
		return
	}

	var user models.User
	if err := ac.DB.First(&user, session.UserID).Error; err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found", "success": false})
		return
	}

	// Rotate: the old session is revoked and a fresh one issued.
	ac.DB.Model(&session).Update("is_active", false)

	accessToken, refreshToken, err := ac.issueTokens(c, &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_type":    "Bearer",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          gin.H{"id": user.ID, "email": user.Email, "pseudo": user.Pseudo, "profilePicture": user.ProfilePicture},
		"success":       true,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	result := ac.DB.Model(&models.Session{}).
		Where("token_hash = ? AND is_active = ?", utils.HashToken(input.RefreshToken), true).
		Update("is_active", false)

	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout", "success": false})
		return
	}

	if user := utils.GetUser(c); user != nil {
		recordActivity(ac.DB, c, &user.UserID, models.ActivityLogout, "User logged out")
	}

	// Token not found still returns success
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully", "success": true})
}

func (ac *AuthController) GetProfile(c *gin.Context) {
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context", "success": false})
		return
	}

	var dbUser models.User
	if err := ac.DB.First(&dbUser, user.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":             dbUser.ID,
			"name":           dbUser.Name,
			"pseudo":         dbUser.Pseudo,
			"email":          dbUser.Email,
			"profilePicture": dbUser.ProfilePicture,
			"isVerified":     dbUser.IsVerified,
			"lastLogin":      dbUser.LastLogin,
			"createdAt":      dbUser.CreatedAt,
			"role":           user.Role,
		},
	})
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	claims := utils.GetUser(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context", "success": false})
		return
	}

	var input struct {
		Name           string `json:"name"`
		ProfilePicture string `json:"profilePicture"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	var user models.User
	if err := ac.DB.First(&user, claims.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "success": false})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = strings.TrimSpace(input.Name)
	}
	if input.ProfilePicture != "" {
		updates["profile_picture"] = input.ProfilePicture
	}

	if len(updates) > 0 {
		if err := ac.DB.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile", "success": false})
			return
		}
		recordActivity(ac.DB, c, &user.ID, models.ActivityProfileUpdated, "Profile updated")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"user": gin.H{
			"id":             user.ID,
			"name":           user.Name,
			"pseudo":         user.Pseudo,
			"email":          user.Email,
			"profilePicture": user.ProfilePicture,
			"createdAt":      user.CreatedAt,
		},
	})
}

func (ac *AuthController) GoogleLogin(c *gin.Context) {
	if ac.GoogleConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google login is not configured", "success": false})
		return
	}

	var input struct {
		IDToken     string `json:"id_token"`
		AccessToken string `json:"access_token"`
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	var userInfo *config.GoogleUserInfo
	var err error

	if input.Code != "" && input.RedirectURI != "" {
		token, exchangeErr := ac.GoogleConfig.ExchangeCode(c.Request.Context(), input.Code)
		if exchangeErr != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange code for token", "success": false})
			return
		}
		userInfo, err = ac.GoogleConfig.GetUserInfo(token.AccessToken)
	} else if input.IDToken != "" {
		userInfo, err = ac.GoogleConfig.VerifyIDToken(input.IDToken)
	} else if input.AccessToken != "" {
		userInfo, err = ac.GoogleConfig.GetUserInfo(input.AccessToken)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either code with redirect_uri, id_token, or access_token is required", "success": false})
		return
	}

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google token", "success": false})
		return
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(userInfo.Email)).First(&user).Error; err != nil {
		user, err = ac.provisionGoogleUser(userInfo)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "success": false})
			return
		}
		recordActivity(ac.DB, c, &user.ID, models.ActivityRegister, "New account registered via Google")
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated", "success": false})
		return
	}

	accessToken, refreshToken, err := ac.issueTokens(c, &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	now := time.Now()
	ac.DB.Model(&user).Update("last_login", now)

	recordActivity(ac.DB, c, &user.ID, models.ActivityLogin, "User logged in via Google")

	c.JSON(http.StatusOK, gin.H{
		"token_type":    "Bearer",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          gin.H{"id": user.ID, "email": user.Email, "pseudo": user.Pseudo, "profilePicture": user.ProfilePicture},
		"success":       true,
	})
}

func (ac *AuthController) provisionGoogleUser(userInfo *config.GoogleUserInfo) (models.User, error) {
	// Derive a unique pseudo from the email local part.
	pseudo := strings.SplitN(userInfo.Email, "@", 2)[0]
	counter := 1
	for {
		var existing models.User
		if ac.DB.Where("pseudo = ?", pseudo).First(&existing).Error != nil {
			break
		}
		pseudo = strings.SplitN(userInfo.Email, "@", 2)[0] + strconv.Itoa(counter)
		counter++
	}

	// No password login for Google accounts; store an unguessable hash.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:           strings.TrimSpace(userInfo.Name),
		Pseudo:         pseudo,
		Email:          strings.ToLower(userInfo.Email),
		Password:       string(hashedPassword),
		ProfilePicture: userInfo.Picture,
		Role:           "user",
		IsActive:       true,
		IsVerified:     userInfo.VerifiedEmail,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

// issueTokens signs an access/refresh token pair and records the session.
func (ac *AuthController) issueTokens(c *gin.Context, user *models.User) (string, string, error) {
	accessTokenBase := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(accessTokenTTL).Unix(),
	})

	refreshTokenBase := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(refreshTokenTTL).Unix(),
	})

	secret := []byte(os.Getenv("JWT_SECRET"))

	accessToken, err := accessTokenBase.SignedString(secret)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := refreshTokenBase.SignedString(secret)
	if err != nil {
		return "", "", err
	}

	session := models.Session{
		UserID:    user.ID,
		TokenHash: utils.HashToken(refreshToken),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
		IsActive:  true,
	}

	if err := ac.DB.Create(&session).Error; err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}
