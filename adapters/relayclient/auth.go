package relayclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type tokenResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// Login exchanges an API key pair for a bearer token and uses it for every
// following request.
func (c *Client) Login(ctx context.Context, apiKey, apiSecret string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("X-API-Secret", apiSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return &RelayError{Message: "Invalid token response: " + err.Error()}
	}
	if out.Token == "" {
		return &RelayError{Message: "Invalid token response: token missing"}
	}
	c.token = out.Token
	return nil
}
