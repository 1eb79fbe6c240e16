package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTTL   = time.Hour
	refreshTTL = 24 * time.Hour
)

/*
Service issues and validates HMAC-signed bearer tokens.  It is one
implementation of Checker; deployments with their own identity provider
can plug in a different one.
*/
type Service struct {
	mu            sync.RWMutex
	tokens        map[string]*TokenInfo
	refreshTokens map[string]string
	limiter       *RateLimiter
	signingKey    []byte
}

// TokenInfo is an issued token plus its refresh companion.
type TokenInfo struct {
	Token        string
	ExpiresAt    time.Time
	RefreshToken string
	Subject      string
}

/*
NewService creates a token service signing with key.  An empty key gets
a random one, which is fine for single-process setups but means tokens
do not survive a restart.
*/
func NewService(key string) *Service {
	if key == "" {
		key = uuid.NewString()
	}

	return &Service{
		tokens:        make(map[string]*TokenInfo),
		refreshTokens: make(map[string]string),
		limiter:       NewRateLimiter(100, time.Minute),
		signingKey:    []byte(key),
	}
}

func (service *Service) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return service.signingKey, nil
}

/*
GenerateToken issues a token for subject, merging any extra claims, and
a refresh token that outlives it.
*/
func (service *Service) GenerateToken(subject string, extra jwt.MapClaims) (*TokenInfo, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(tokenTTL).Unix(),
	}
	for key, value := range extra {
		claims[key] = value
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refreshStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(refreshTTL).Unix(),
	}).SignedString(service.signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	info := &TokenInfo{
		Token:        tokenStr,
		ExpiresAt:    now.Add(tokenTTL),
		RefreshToken: refreshStr,
		Subject:      subject,
	}

	service.mu.Lock()
	service.tokens[tokenStr] = info
	service.refreshTokens[refreshStr] = tokenStr
	service.mu.Unlock()

	return info, nil
}

/*
Validate checks a raw token string.  Requests count against the rate
limit before any parsing happens.
*/
func (service *Service) Validate(tokenStr string) error {
	if !service.limiter.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}

	token, err := jwt.Parse(tokenStr, service.keyFunc)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return fmt.Errorf("token expired")
	}

	return nil
}

// Authorize implements Checker against the Authorization header.
func (service *Service) Authorize(get HeaderFunc) bool {
	header := get("Authorization")
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return false
	}

	return service.Validate(strings.TrimSpace(header[7:])) == nil
}

/*
RefreshToken trades a refresh token for a fresh token carrying the same
subject.
*/
func (service *Service) RefreshToken(refreshStr string) (*TokenInfo, error) {
	service.mu.RLock()
	_, exists := service.refreshTokens[refreshStr]
	service.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("invalid refresh token")
	}

	token, err := jwt.Parse(refreshStr, service.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("refresh token no longer valid: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid refresh token claims")
	}

	subject, _ := claims["sub"].(string)
	return service.GenerateToken(subject, nil)
}

// RevokeToken forgets a token and its refresh companion.
func (service *Service) RevokeToken(tokenStr string) error {
	service.mu.Lock()
	defer service.mu.Unlock()

	info, exists := service.tokens[tokenStr]
	if !exists {
		return fmt.Errorf("token not found")
	}

	delete(service.tokens, tokenStr)
	delete(service.refreshTokens, info.RefreshToken)
	return nil
}

// GetTokenInfo looks up an issued token.
func (service *Service) GetTokenInfo(tokenStr string) (*TokenInfo, error) {
	service.mu.RLock()
	defer service.mu.RUnlock()

	info, exists := service.tokens[tokenStr]
	if !exists {
		return nil, fmt.Errorf("token not found")
	}

	return info, nil
}
