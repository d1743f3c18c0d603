package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/school-notify/internal/models"
)

// Credentials — непрозрачная конфигурация провайдера; ядру принадлежит
// только факт её существования.
type Credentials struct {
	BaseURL  string
	Token    string
	Secret   string
	DeviceID string
}

// HTTPClient — клиент HTTP-провайдера сообщений (WhatsApp-шлюз).
type HTTPClient struct {
	creds Credentials
	cl    *http.Client
}

func NewHTTPClient(creds Credentials) *HTTPClient {
	return &HTTPClient{
		creds: creds,
		cl:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *HTTPClient) Address(c *models.ParentContact) (string, bool) {
	d := c.Destination()
	return d, d != ""
}

type sendRequest struct {
	RequestID string `json:"request_id"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Reason    string `json:"reason"`
	Quota     *int   `json:"quota_remaining"`
}

func (g *HTTPClient) Send(ctx context.Context, destination, body string) (*SendResult, error) {
	payload, err := json.Marshal(sendRequest{
		RequestID: uuid.NewString(),
		Phone:     destination,
		Message:   body,
	})
	if err != nil {
		return nil, err
	}
	raw, err := g.do(ctx, http.MethodPost, "/api/v1/messages", payload)
	if err != nil {
		return nil, err
	}
	var resp sendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("кривой ответ шлюза: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("шлюз отказал: %s", resp.Reason)
	}
	return &SendResult{MessageID: resp.MessageID, RawResponse: string(raw), Quota: resp.Quota}, nil
}

type deviceResponse struct {
	Success bool   `json:"success"`
	Device  string `json:"device"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Quota   *int   `json:"quota_remaining"`
}

func (g *HTTPClient) TestConnection(ctx context.Context) (*DeviceInfo, error) {
	raw, err := g.do(ctx, http.MethodGet, "/api/v1/device", nil)
	if err != nil {
		return nil, err
	}
	var resp deviceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("кривой ответ шлюза: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("шлюз отказал: %s", resp.Reason)
	}
	return &DeviceInfo{DeviceID: resp.Device, Name: resp.Name, Phone: resp.Phone}, nil
}

func (g *HTTPClient) CheckDeviceStatus(ctx context.Context) (models.ConnState, *int, error) {
	raw, err := g.do(ctx, http.MethodGet, "/api/v1/device/status", nil)
	if err != nil {
		return models.ConnError, nil, err
	}
	var resp deviceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.ConnError, nil, fmt.Errorf("кривой ответ шлюза: %w", err)
	}
	return StateFromProvider(resp.Status), resp.Quota, nil
}

// StateFromProvider — статус устройства считается online только при
// точном совпадении со словарём провайдера.
func StateFromProvider(s string) models.ConnState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "connected", "online", "ready":
		return models.ConnConnected
	case "connecting", "pairing":
		return models.ConnConnecting
	case "error":
		return models.ConnError
	}
	return models.ConnDisconnected
}

func (g *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.creds.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.creds.Token)
	req.Header.Set("X-Device-Secret", g.creds.Secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := g.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
