package firestore

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tsiory-dev/garagesync/internal/common"
)

const datastoreScope = "https://www.googleapis.com/auth/datastore"

// TokenSource yields a bearer token for the Firestore data API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// serviceAccountKey mirrors the JSON key file issued for a service account.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// ServiceAccountTokenSource exchanges a signed JWT assertion for a short-lived
// access token, caching it until shortly before expiry. A broken key file
// surfaces as common.ErrConfig, a failed exchange as common.ErrAuth.
type ServiceAccountTokenSource struct {
	keyPath    string
	httpClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewServiceAccountTokenSource(keyPath string) *ServiceAccountTokenSource {
	return &ServiceAccountTokenSource{
		keyPath:    keyPath,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *ServiceAccountTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires) {
		return s.token, nil
	}

	key, privateKey, err := s.loadKey()
	if err != nil {
		return "", err
	}

	assertion, err := s.signAssertion(key, privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: signing assertion: %v", common.ErrAuth, err)
	}

	token, expiresIn, err := s.exchange(ctx, key.TokenURI, assertion)
	if err != nil {
		return "", err
	}

	s.token = token
	// renew a minute early so in-flight requests never carry a stale token
	s.expires = time.Now().Add(time.Duration(expiresIn)*time.Second - time.Minute)

	return s.token, nil
}

func (s *ServiceAccountTokenSource) loadKey() (*serviceAccountKey, *rsa.PrivateKey, error) {
	raw, err := os.ReadFile(s.keyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading key file %s: %v", common.ErrConfig, s.keyPath, err)
	}

	key := &serviceAccountKey{}
	if err := json.Unmarshal(raw, key); err != nil {
		return nil, nil, fmt.Errorf("%w: parsing key file: %v", common.ErrConfig, err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" || key.TokenURI == "" {
		return nil, nil, fmt.Errorf("%w: key file misses client_email, private_key or token_uri", common.ErrConfig)
	}

	// an unparseable private key is a broken credential file, not an auth
	// failure at the remote end
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parsing private_key: %v", common.ErrConfig, err)
	}

	return key, privateKey, nil
}

func (s *ServiceAccountTokenSource) signAssertion(key *serviceAccountKey, privateKey *rsa.PrivateKey) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   key.ClientEmail,
		"scope": datastoreScope,
		"aud":   key.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
}

func (s *ServiceAccountTokenSource) exchange(ctx context.Context, tokenURI, assertion string) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", common.ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: token exchange: %v", common.ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: token endpoint returned %s", common.ErrAuth, resp.Status)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("%w: decoding token response: %v", common.ErrAuth, err)
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: token response carries no access_token", common.ErrAuth)
	}

	return body.AccessToken, body.ExpiresIn, nil
}
