package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
)

// ITurnstileVerifier verifies Cloudflare Turnstile challenges and manages the
// signed human tokens handed back to verified clients.
type ITurnstileVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
	GenerateHumanToken(ip, fingerprint, spaSession string, ttl time.Duration) (string, error)
	ValidateHumanToken(tokenString, ip, fingerprint, spaSession string) bool
}

// CloudflareResponse is the siteverify endpoint's response body.
type CloudflareResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
}

type turnstileVerifier struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewTurnstileVerifier creates a new Turnstile verifier.
func NewTurnstileVerifier(cfg *config.Config) ITurnstileVerifier {
	return &turnstileVerifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Verify calls the Cloudflare siteverify endpoint. With no secret key
// configured (local development), every challenge passes.
func (v *turnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if v.cfg.CloudflareTurnstileSecretKey == "" {
		log.Println("WARN: Cloudflare Turnstile secret key not configured. Skipping verification.")
		return true, nil
	}

	formData := map[string]string{
		"secret":   v.cfg.CloudflareTurnstileSecretKey,
		"response": token,
	}
	if remoteIP != "" {
		formData["remoteip"] = remoteIP
	}

	jsonData, _ := json.Marshal(formData)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.CloudflareSiteVerifyURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create turnstile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to contact turnstile service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read turnstile response: %w", err)
	}

	var cfResp CloudflareResponse
	if err := json.Unmarshal(body, &cfResp); err != nil {
		return false, fmt.Errorf("failed to decode turnstile response: %w", err)
	}
	if !cfResp.Success {
		log.Printf("Turnstile verification failed: %v", cfResp.ErrorCodes)
	}
	return cfResp.Success, nil
}

// humanClaims binds a human token to the client that earned it.
type humanClaims struct {
	IP          string `json:"ip"`
	Fingerprint string `json:"bfp,omitempty"`
	SpaSession  string `json:"spa,omitempty"`
	jwt.RegisteredClaims
}

// GenerateHumanToken issues a signed token tied to the client identity so a
// passed challenge cannot be replayed from elsewhere.
func (v *turnstileVerifier) GenerateHumanToken(ip, fingerprint, spaSession string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := humanClaims{
		IP:          ip,
		Fingerprint: fingerprint,
		SpaSession:  spaSession,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(v.cfg.JwtSecret))
}

// ValidateHumanToken checks signature, expiry and client binding.
func (v *turnstileVerifier) ValidateHumanToken(tokenString, ip, fingerprint, spaSession string) bool {
	var claims humanClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.cfg.JwtSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}
	return claims.IP == ip && claims.Fingerprint == fingerprint && claims.SpaSession == spaSession
}
