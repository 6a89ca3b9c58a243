package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"HealthAssist/models"
	"HealthAssist/pkg/auth"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/store"
	"HealthAssist/pkg/utils"
)

// Register handler
func Register(users store.UserStore, log *logger.Logger) gin.HandlerFunc {
	log = log.With("handler", "Register")
	return func(c *gin.Context) {
		var body struct {
			Email           string `json:"email"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid request")
			return
		}

		email := utils.NormalizeEmail(body.Email)
		if email == "" || body.Password == "" || body.ConfirmPassword == "" {
			abortWithError(c, http.StatusBadRequest, "Email, password, and confirm password are required")
			return
		}
		if body.Password != body.ConfirmPassword {
			abortWithError(c, http.StatusBadRequest, "Passwords do not match")
			return
		}
		// at least one letter and one number
		if !utils.HasLetter(body.Password) || !utils.HasNumber(body.Password) {
			abortWithError(c, http.StatusBadRequest, "Password must contain at least one letter and one number")
			return
		}

		user := models.User{Email: email}
		if err := user.SetPassword(body.Password); err != nil {
			log.Error("failed to hash password", "error", err)
			abortWithError(c, http.StatusInternalServerError, "failed to set password")
			return
		}
		if err := users.Create(c.Request.Context(), &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				abortWithError(c, http.StatusConflict, "Email already exists")
				return
			}
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		log.Info("user registered", "userID", user.ID)
		c.JSON(http.StatusCreated, gin.H{"message": "User created", "id": user.ID, "email": user.Email})
	}
}

// Login handler
func Login(users store.UserStore, issuer *auth.Issuer, log *logger.Logger) gin.HandlerFunc {
	log = log.With("handler", "Login")
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid request")
			return
		}
		email := utils.NormalizeEmail(body.Email)
		if email == "" || body.Password == "" {
			abortWithError(c, http.StatusBadRequest, "Email and password are required")
			return
		}

		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				abortWithError(c, http.StatusInternalServerError, err.Error())
				return
			}
			abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if !user.CheckPassword(body.Password) {
			abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		tok, _, err := issuer.Issue(user.ID)
		if err != nil {
			log.Error("failed to issue token", "userID", user.ID, "error", err)
			abortWithError(c, http.StatusInternalServerError, "failed to create token")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": tok,
			"token_type":   "Bearer",
			"expires_in":   int(issuer.TTL().Seconds()),
			"user_id":      user.ID,
		})
	}
}

// Logout revokes the caller's token for the rest of its lifetime.
func Logout(authn *auth.Authenticator, log *logger.Logger) gin.HandlerFunc {
	log = log.With("handler", "Logout")
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		if err := authn.Revoke(c.Request.Context(), s); err != nil {
			log.Error("failed to revoke token", "userID", s.UserID, "error", err)
			abortWithError(c, http.StatusInternalServerError, "failed to revoke token")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}
