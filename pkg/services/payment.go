package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mamacare/pkg/config"
)

// PaymentService wraps the opaque checkout collaborator. The app only ever
// initializes a checkout and later verifies a reference; everything between
// happens on the provider's pages.

var ErrPaymentNotConfigured = errors.New("payment secret key is not set")

type PaymentService struct {
	secretKey string
	apiBase   string
	client    *http.Client
}

func NewPaymentService() *PaymentService {
	return NewPaymentServiceWith(config.PaymentSecretKey, config.PaymentAPIBase)
}

func NewPaymentServiceWith(secretKey, apiBase string) *PaymentService {
	return &PaymentService{
		secretKey: secretKey,
		apiBase:   strings.TrimRight(apiBase, "/"),
		client:    &http.Client{Timeout: 20 * time.Second},
	}
}

// InitializeCheckout starts a hosted checkout and returns (authorizationURL,
// reference).
func (s *PaymentService) InitializeCheckout(ctx context.Context, email string, amountKobo int64) (string, string, error) {
	if s.secretKey == "" {
		return "", "", ErrPaymentNotConfigured
	}
	body, _ := json.Marshal(map[string]any{"email": email, "amount": amountKobo})
	var out struct {
		Status bool `json:"status"`
		Data   struct {
			AuthorizationURL string `json:"authorization_url"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := s.post(ctx, "/transaction/initialize", body, &out); err != nil {
		return "", "", err
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return "", "", errors.New("payment initialize rejected")
	}
	return out.Data.AuthorizationURL, out.Data.Reference, nil
}

// VerifyReference reports whether the provider marked the reference paid.
func (s *PaymentService) VerifyReference(ctx context.Context, reference string) (bool, error) {
	if s.secretKey == "" {
		return false, ErrPaymentNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"/transaction/verify/"+reference, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("payment http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("payment status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out struct {
		Status bool `json:"status"`
		Data   struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("payment verify decode: %w", err)
	}
	return out.Status && out.Data.Status == "success", nil
}

func (s *PaymentService) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("payment status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
