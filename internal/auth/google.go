package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ecosphere/ecosphere/internal/provider/resilience"
)

const (
	// GoogleKeysURL is the URL of Google's OAuth2 signing keys.
	GoogleKeysURL = "https://www.googleapis.com/oauth2/v3/certs"

	// keyCacheRefreshInterval is how often to refresh the Google public keys.
	keyCacheRefreshInterval = 6 * time.Hour
)

// googleIssuers are the accepted "iss" values of Google ID tokens.
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Predefined errors for Google ID token verification.
var (
	ErrInvalidIDToken     = errors.New("invalid identity token")
	ErrIDTokenExpired     = errors.New("identity token has expired")
	ErrInvalidIssuer      = errors.New("invalid token issuer")
	ErrInvalidAudience    = errors.New("invalid token audience")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrKeyNotFound        = errors.New("signing key not found")
	ErrFetchingGoogleKeys = errors.New("failed to fetch Google public keys")
	ErrInvalidKeyFormat   = errors.New("invalid key format")
)

// JWK is a single RSA JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// HTTPDoer is an interface for making HTTP requests.
// Both *http.Client and *resilience.Client satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GoogleIdentity is the verified identity carried by a Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier verifies Google Sign-In ID tokens.
type GoogleVerifier struct {
	httpClient HTTPDoer
	clientID   string
	keysURL    string

	mu            sync.RWMutex
	keys          map[string]*rsa.PublicKey
	keysUpdatedAt time.Time
}

// GoogleConfig holds configuration for the Google verifier.
type GoogleConfig struct {
	// ClientID is the OAuth client id the tokens are issued for (audience).
	ClientID string

	// KeysURL overrides GoogleKeysURL.
	KeysURL string

	// HTTPClient is an optional custom HTTP client for fetching keys.
	// If nil, a resilient client with circuit breaker is used.
	HTTPClient HTTPDoer

	// Registry receives the default resilient client for status reporting.
	Registry *resilience.Registry
}

// NewGoogleVerifier creates a new Google ID token verifier.
func NewGoogleVerifier(cfg GoogleConfig) *GoogleVerifier {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            "google-oauth-keys",
			Timeout:         10 * time.Second,
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Registry:        cfg.Registry,
		})
	}

	keysURL := cfg.KeysURL
	if keysURL == "" {
		keysURL = GoogleKeysURL
	}

	return &GoogleVerifier{
		httpClient: httpClient,
		clientID:   cfg.ClientID,
		keysURL:    keysURL,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// googleClaims is the claim set of a Google ID token.
type googleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verify checks an ID token and returns the identity it carries.
func (v *GoogleVerifier) Verify(ctx context.Context, tokenString string) (*GoogleIdentity, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIDToken, err.Error())
	}

	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("%w: missing key ID", ErrInvalidIDToken)
	}

	publicKey, err := v.getPublicKey(ctx, kid)
	if err != nil {
		return nil, err
	}

	token, err = jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	).ParseWithClaims(tokenString, &googleClaims{}, func(t *jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrIDTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return nil, ErrInvalidAudience
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidIDToken, err.Error())
	}

	gc, ok := token.Claims.(*googleClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidIDToken
	}

	if !validGoogleIssuer(gc.Issuer) {
		return nil, ErrInvalidIssuer
	}
	if gc.Email == "" || !gc.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return &GoogleIdentity{
		Subject: gc.Subject,
		Email:   gc.Email,
		Name:    gc.Name,
		Picture: gc.Picture,
	}, nil
}

func validGoogleIssuer(iss string) bool {
	for _, want := range googleIssuers {
		if iss == want {
			return true
		}
	}
	return false
}

// getPublicKey retrieves the public key for the given key ID.
func (v *GoogleVerifier) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	needsRefresh := time.Since(v.keysUpdatedAt) > keyCacheRefreshInterval
	v.mu.RUnlock()

	if ok && !needsRefresh {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		// Serve a cached key when the refresh fails.
		v.mu.RLock()
		key, ok = v.keys[kid]
		v.mu.RUnlock()
		if ok {
			return key, nil
		}
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}

	return key, nil
}

// refreshKeys fetches the latest public keys from Google.
func (v *GoogleVerifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.keysURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFetchingGoogleKeys, err.Error())
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFetchingGoogleKeys, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrFetchingGoogleKeys, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("%w: %s", ErrFetchingGoogleKeys, err.Error())
	}

	newKeys := make(map[string]*rsa.PublicKey)
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" {
			continue
		}

		key, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			continue
		}
		newKeys[jwk.Kid] = key
	}

	v.mu.Lock()
	v.keys = newKeys
	v.keysUpdatedAt = time.Now()
	v.mu.Unlock()

	return nil
}

// jwkToRSAPublicKey converts a JWK to an RSA public key.
func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid modulus", ErrInvalidKeyFormat)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid exponent", ErrInvalidKeyFormat)
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
