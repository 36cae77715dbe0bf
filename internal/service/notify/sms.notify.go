package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ride-backend/pkg/xerrors"
)

// SMSClient sends text messages through the HostPinnacle SMS gateway.
type SMSClient struct {
	baseURL  string
	apiKey   string
	userID   string
	password string
	senderID string
	client   *http.Client
}

func NewSMSClient(baseURL, apiKey, userID, password, senderID string) *SMSClient {
	return &SMSClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		userID:   userID,
		password: password,
		senderID: senderID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SMSClient) Send(ctx context.Context, to, message string) error {
	start := time.Now()

	form := url.Values{}
	form.Set("userid", s.userID)
	form.Set("password", s.password)
	form.Set("senderid", s.senderID)
	form.Set("sendMethod", "quick")
	form.Set("msgType", "text")
	form.Set("msg", message)
	form.Set("mobile", to)
	form.Set("duplicatecheck", "true")
	form.Set("output", "json")

	apiURL := strings.TrimRight(s.baseURL, "/") + "/SMSApi/send"
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[SMS] HTTP error sending to %s: %v", to, err)
		return fmt.Errorf("%w: %v", xerrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	duration := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		log.Printf("[SMS] Failed sending | Recipient=%s | SenderID=%s | Status=%d | Duration=%v | Response=%s",
			to, s.senderID, resp.StatusCode, duration, string(body))
		return fmt.Errorf("%w: sms api status %d", xerrors.ErrUpstream, resp.StatusCode)
	}

	log.Printf("[SMS] Successfully sent | Recipient=%s | SenderID=%s | Duration=%v",
		to, s.senderID, duration)
	return nil
}
