package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by a provider session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// SubjectID returns the identity subject id (correlation key) from the claims.
func (c *SessionClaims) SubjectID() string {
	return c.Subject
}

// Verifier verifies provider-issued session JWTs against the provider JWKS.
type Verifier struct {
	issuer string
	jwks   *JWKSCache
}

// NewVerifier creates a session token verifier for the given issuer.
// The JWKS endpoint is derived from the issuer URL.
func NewVerifier(issuer string) (*Verifier, error) {
	issuer = strings.TrimSuffix(issuer, "/")
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}

	return &Verifier{
		issuer: issuer,
		jwks:   NewJWKSCache(issuer + "/.well-known/jwks.json"),
	}, nil
}

// Verify verifies a session token and returns the claims.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Get key ID from token header
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in token header")
		}

		// Get the public key from JWKS
		return v.jwks.GetKey(ctx, kid)
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// JWKSCache caches the provider's JSON Web Key Set.
type JWKSCache struct {
	url        string
	mu         sync.RWMutex
	keys       map[string]any // kid -> public key
	lastFetch  time.Time
	cacheTTL   time.Duration
	httpClient *http.Client
}

// NewJWKSCache creates a new JWKS cache.
func NewJWKSCache(jwksURL string) *JWKSCache {
	return &JWKSCache{
		url:      jwksURL,
		keys:     make(map[string]any),
		cacheTTL: 10 * time.Minute,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetKey returns the public key for the given key ID.
func (c *JWKSCache) GetKey(ctx context.Context, kid string) (any, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	needsRefresh := time.Since(c.lastFetch) > c.cacheTTL
	c.mu.RUnlock()

	if ok && !needsRefresh {
		return key, nil
	}

	// Fetch new keys
	if err := c.refresh(ctx); err != nil {
		// If we have a cached key and refresh fails, use the cached key
		if ok {
			log.Printf("JWKS refresh failed, using cached key: %v", err)
			return key, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}

	return key, nil
}

// JWKS represents a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

func (c *JWKSCache) refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring lock
	if time.Since(c.lastFetch) < c.cacheTTL && len(c.keys) > 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := decodeJSON(resp.Body, &jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	newKeys := make(map[string]any)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" || key.Use != "sig" {
			continue
		}

		publicKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			log.Printf("failed to parse RSA key %s: %v", key.Kid, err)
			continue
		}

		newKeys[key.Kid] = publicKey
	}

	c.keys = newKeys
	c.lastFetch = time.Now()

	return nil
}
