package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultCountryCode replaces the leading trunk 0 of national numbers.
const DefaultCountryCode = "58"

type Client struct {
	BaseURL     string
	Username    string
	Password    string
	Path        string
	CountryCode string
	HTTPClient  *http.Client
}

type SendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type SendMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Status    string `json:"status"`
	} `json:"data"`
}

func NewClient(baseURL, username, password, path string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Username:    username,
		Password:    password,
		Path:        strings.Trim(path, "/"),
		CountryCode: DefaultCountryCode,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NormalizePhone keeps digits only and turns a national number
// (0414 123 4567) into international form (584141234567).
func (c *Client) NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") && c.CountryCode != "" {
		return c.CountryCode + digits[1:]
	}
	return digits
}

// SendTextMessage sends message to phone. A response with success=false is
// returned as an error.
func (c *Client) SendTextMessage(ctx context.Context, phone, message string) error {
	resp, err := c.SendMessage(ctx, phone, message)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("whatsapp rejected message: %s", resp.Message)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, phone, message string) (*SendMessageResponse, error) {
	number := c.NormalizePhone(phone)
	if number == "" {
		return nil, fmt.Errorf("invalid phone number %q", phone)
	}

	requestData := SendMessageRequest{
		Phone:   number + "@s.whatsapp.net",
		Message: message,
	}
	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	url := fmt.Sprintf("%s/%s/send/message", c.BaseURL, c.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response SendMessageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}
