package main

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "fintrack-dev-secret"
	}
	return []byte(secret)
}

// signToken issues a 7-day HS256 token carrying the user's id and email.
func signToken(userID int, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    userID,
		"email": email,
		"exp":   time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	return token.SignedString(jwtSecret())
}

// authRequired verifies the Authorization bearer token and stores the user
// id on the request context.
func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access token required"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid or expired token"})
			return
		}
		id, ok := claims["id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set("userID", int(id))
		c.Next()
	}
}

func currentUserID(c *gin.Context) int {
	return c.GetInt("userID")
}

type registerRequest struct {
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	PreferredCurrency string `json:"preferredCurrency"`
}

func validCurrency(code string) bool {
	return code == "MKD" || code == "EUR" || code == "USD"
}

// register creates a user, seeds their default categories and returns a
// token.
func register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	switch {
	case req.FullName == "" || req.Email == "" || req.Password == "":
		c.JSON(http.StatusBadRequest, gin.H{"message": "Full name, email, and password are required"})
		return
	case len(req.FullName) < 2:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Full name must be at least 2 characters long"})
		return
	case !emailRe.MatchString(req.Email):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a valid email address"})
		return
	case len(req.Password) < 6:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be at least 6 characters long"})
		return
	case req.PreferredCurrency != "" && !validCurrency(req.PreferredCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid currency. Must be MKD, EUR, or USD"})
		return
	}
	if req.PreferredCurrency == "" {
		req.PreferredCurrency = "MKD"
	}

	var existingID int
	err := db.QueryRow(`SELECT id FROM users WHERE email = $1`, req.Email).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists with this email"})
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	var user User
	err = db.QueryRow(
		`INSERT INTO users (full_name, email, password_hash, preferred_currency)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, full_name, email, preferred_currency, created_at`,
		req.FullName, req.Email, string(hash), req.PreferredCurrency,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.PreferredCurrency, &user.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	if err := createDefaultCategories(db, user.ID); err != nil {
		// The account exists; categories can still be created later.
		log.Printf("Warning: failed to create default categories for user %d: %v", user.ID, err)
	}

	token, err := signToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	var user User
	var passwordHash string
	err := db.QueryRow(
		`SELECT id, full_name, email, password_hash, preferred_currency, created_at
		 FROM users WHERE email = $1`,
		req.Email,
	).Scan(&user.ID, &user.FullName, &user.Email, &passwordHash, &user.PreferredCurrency, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	token, err := signToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// getMe returns the authenticated user's profile.
func getMe(c *gin.Context) {
	userID := currentUserID(c)

	var user User
	err := db.QueryRow(
		`SELECT id, full_name, email, preferred_currency, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.PreferredCurrency, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
