package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"time"     // Token lifetime

	"expense_tracker/internal/domain" // Importing domain models
	"expense_tracker/internal/ledger" // Ledger store
	"expense_tracker/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
)

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"` // Given name
	LastName  string `json:"last_name" binding:"required,max=100"`  // Family name
	Username  string `json:"username" binding:"required"`           // 3-30 characters, no spaces or @
	Email     string `json:"email" binding:"required,email"`        // Must be a valid address
	Password  string `json:"password" binding:"required"`           // At least 6 characters
}

// LoginRequest accepts a username or an email as identifier
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // Username or email
	Password   string `json:"password" binding:"required"`   // Password must be provided
}

// AuthResponse carries a signed token
type AuthResponse struct {
	Token     string       `json:"token"`      // JWT token
	ExpiresIn int64        `json:"expires_in"` // Seconds until expiry
	User      UserResponse `json:"user"`       // Authenticated user
}

var usernamePattern = regexp.MustCompile(`^[^\s@]{3,30}$`) // No whitespace or @, 3-30 characters

// isValidPassword checks the minimum password length
func isValidPassword(password string) bool {
	return len(password) >= 6 && len(password) <= 72 // bcrypt ignores bytes past 72
}

// RegisterHandler creates a regular user
func RegisterHandler(store *ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "first_name, last_name, username, a valid email and password are required")
			return
		}
		if !usernamePattern.MatchString(req.Username) {
			badRequest(c, "Username must be 3-30 characters without spaces or @")
			return
		}
		if !isValidPassword(req.Password) {
			badRequest(c, "Password must be 6-72 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost) // Hash the password
		if err != nil {
			respondError(c, err)
			return
		}
		user := domain.User{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username, // Lower-cased by the store
			Email:     req.Email,    // Lower-cased by the store
			Password:  string(hash),
		}
		if err := store.CreateUser(c.Request.Context(), &user); err != nil {
			respondError(c, err) // Duplicate username or email is a conflict
			return
		}
		_, _ = utils.DeleteMatching(c.Request.Context(), rdb, utils.AllUserPages()) // Listing changed
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
		c.JSON(http.StatusCreated, userResponse(&user))
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(store *ledger.Store, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "identifier and password are required")
			return
		}
		user, err := store.UserByLogin(c.Request.Context(), req.Identifier) // Email when it has an @, else username
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				err = domain.InvalidCredentials() // Do not reveal which part was wrong
			}
			respondError(c, err)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			logrus.WithField("user_id", user.ID).Warn("Failed login")
			respondError(c, domain.InvalidCredentials())
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Username, jwtSecret, ttl)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, ExpiresIn: int64(ttl.Seconds()), User: userResponse(user)})
	}
}
