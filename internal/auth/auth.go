// Package auth registers dashboard users and guards routes with a signed
// session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/driver"
)

const (
	CookieName = "token"
	SessionTTL = 7 * 24 * time.Hour
	BcryptCost = 10

	claimsKey = "auth.claims"
)

var (
	ErrMissingFields      = errors.New("username and password are required")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims is the JWT payload of a session cookie.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Gate struct {
	Store  driver.RecordStore
	Secret []byte
	// Secure marks the cookie HTTPS only.
	Secure bool
	Now    func() time.Time
	NewID  func() string
}

func NewGate(store driver.RecordStore, secret string, secure bool) *Gate {
	return &Gate{
		Store:  store,
		Secret: []byte(secret),
		Secure: secure,
		Now:    time.Now,
		NewID:  func() string { return uuid.New().String() },
	}
}

func (g *Gate) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:           g.NewID(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    g.Now().UTC(),
	}
	if err := g.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, driver.ErrConflict) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (g *Gate) Login(ctx context.Context, username, password string) (string, error) {
	user, err := g.Store.GetUserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return g.Sign(user)
}

func (g *Gate) Sign(user model.User) (string, error) {
	now := g.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (g *Gate) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return g.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.Now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (g *Gate) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(SessionTTL/time.Second), "/", "", g.Secure, true)
}

func (g *Gate) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", g.Secure, true)
}

// Middleware rejects requests without a valid session cookie.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		claims, err := g.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// FromContext returns the claims stored by Middleware.
func FromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
