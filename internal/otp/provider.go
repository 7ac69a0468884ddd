package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arjunnair/tiffinbox-backend/pkg/config"
)

// StatusApproved is the provider status for a correct code.
const StatusApproved = "approved"

// Provider abstracts the verification backend so the service and controllers
// can be tested without a live SMS provider.
type Provider interface {
	SendCode(ctx context.Context, phone string) (string, error)
	CheckCode(ctx context.Context, phone, code string) (bool, string, error)
}

const twilioVerifyBaseURL = "https://verify.twilio.com/v2"

// TwilioProvider talks to the Twilio Verify REST API.
type TwilioProvider struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	serviceSID string
}

// NewTwilioProvider builds the Verify-backed provider.
func NewTwilioProvider(cfg config.TwilioConfig) (*TwilioProvider, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, fmt.Errorf("twilio account sid is required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("twilio auth token is required")
	}
	if strings.TrimSpace(cfg.VerifyServiceSID) == "" {
		return nil, fmt.Errorf("twilio verify service sid is required")
	}
	return &TwilioProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    twilioVerifyBaseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		serviceSID: cfg.VerifyServiceSID,
	}, nil
}

type verificationResponse struct {
	Status string `json:"status"`
}

func (p *TwilioProvider) SendCode(ctx context.Context, phone string) (string, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", "sms")

	resp, err := p.post(ctx, fmt.Sprintf("%s/Services/%s/Verifications", p.baseURL, p.serviceSID), form)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (p *TwilioProvider) CheckCode(ctx context.Context, phone, code string) (bool, string, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Code", code)

	resp, err := p.post(ctx, fmt.Sprintf("%s/Services/%s/VerificationCheck", p.baseURL, p.serviceSID), form)
	if err != nil {
		return false, "", err
	}
	return resp.Status == StatusApproved, resp.Status, nil
}

func (p *TwilioProvider) post(ctx context.Context, endpoint string, form url.Values) (*verificationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.accountSID, p.authToken)

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling verify api: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading verify response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// body may carry provider details; status code is enough to diagnose
		return nil, fmt.Errorf("verify api returned %d", res.StatusCode)
	}

	var parsed verificationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding verify response: %w", err)
	}
	return &parsed, nil
}
