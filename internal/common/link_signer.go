package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LinkToken is a decoded handoff token: proof that a specific Discord user
// asked for a linking session
type LinkToken struct {
	DiscordID string
	TokenID   string
	ExpiresAt time.Time
}

// LinkURLSigner mints and validates the short-lived single-use tokens the
// verify command embeds in linking-site URLs. The linking site exchanges the
// token for the Discord id via /link/claim; the OAuth flow itself stays on
// the site.
type LinkURLSigner struct {
	secretKey []byte
	siteURL   string
	cache     CacheInterface
}

// NewLinkURLSigner creates a new link URL signer
func NewLinkURLSigner(secretKey []byte, siteURL string, cache CacheInterface) *LinkURLSigner {
	return &LinkURLSigner{
		secretKey: secretKey,
		siteURL:   siteURL,
		cache:     cache,
	}
}

// GenerateLinkURL generates a single-use presigned linking URL
func (s *LinkURLSigner) GenerateLinkURL(discordID string, ttl time.Duration) (string, error) {
	tokenID := uuid.New().String()
	expiresAt := time.Now().Add(ttl)

	claims := jwt.MapClaims{
		"discord_id": discordID,
		"jti":        tokenID,
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return s.siteURL + "/link?token=" + tokenString, nil
}

// ValidateToken validates a handoff token and enforces single use
func (s *LinkURLSigner) ValidateToken(tokenString string) (*LinkToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	discordID, ok := (*claims)["discord_id"].(string)
	if !ok {
		return nil, errors.New("missing or invalid discord_id claim")
	}

	tokenID, ok := (*claims)["jti"].(string)
	if !ok {
		return nil, errors.New("missing or invalid jti claim")
	}

	expFloat, ok := (*claims)["exp"].(float64)
	if !ok {
		return nil, errors.New("missing or invalid exp claim")
	}
	expiresAt := time.Unix(int64(expFloat), 0)

	if time.Now().After(expiresAt) {
		return nil, errors.New("token expired")
	}

	if _, used := s.cache.Get("used_link_token:" + tokenID); used {
		return nil, errors.New("token already used")
	}

	return &LinkToken{
		DiscordID: discordID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

// ConsumeToken validates the token and burns it in one step. The burn is a
// cache check-and-set, so of two concurrent claims exactly one wins. The
// burn record only needs to outlive the token itself.
func (s *LinkURLSigner) ConsumeToken(tokenString string) (*LinkToken, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	ttl := time.Until(token.ExpiresAt) + time.Minute
	if !s.cache.SetIfAbsent("used_link_token:"+token.TokenID, "1", ttl) {
		return nil, errors.New("token already used")
	}

	return token, nil
}
