package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// CaptchaService checks reCAPTCHA responses against Google's siteverify endpoint.
type CaptchaService struct {
	siteKey   string
	secretKey string
	verifyURL string
	client    *http.Client
}

func NewCaptchaService(siteKey, secretKey string) *CaptchaService {
	return &CaptchaService{
		siteKey:   siteKey,
		secretKey: secretKey,
		verifyURL: recaptchaVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *CaptchaService) SiteKey() string {
	return s.siteKey
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify rejects an empty response without asking Google, since the test keys accept anything.
func (s *CaptchaService) Verify(ctx context.Context, response string) (bool, error) {
	if response == "" {
		return false, nil
	}

	form := url.Values{"response": {response}, "secret": {s.secretKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach captcha service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("captcha service returned status %d", resp.StatusCode)
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode captcha response: %w", err)
	}
	return result.Success, nil
}
