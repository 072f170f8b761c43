package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"srcbook/pkg/api"
)

// SrcbookClient handles API calls to a srcbook server.
type SrcbookClient struct {
	BaseURL    string
	APIKey     string
	Username   string
	Password   string
	HTTPClient *http.Client
}

// NewSrcbookClient creates a new client with the given base URL and API key.
func NewSrcbookClient(baseURL, apiKey string) *SrcbookClient {
	return &SrcbookClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Pending sends GET /pending, or GET /cached when cached is set.
func (c *SrcbookClient) Pending(cached bool) (api.PendingResponse, error) {
	if cached {
		var runs []api.Run
		if err := c.do(http.MethodGet, "/cached", &runs); err != nil {
			return nil, err
		}
		byGame := api.PendingResponse{}
		for _, r := range runs {
			byGame[r.GameID] = append(byGame[r.GameID], r)
		}
		return byGame, nil
	}

	var result api.PendingResponse
	if err := c.do(http.MethodGet, "/pending", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Book sends POST /book/{run}.
func (c *SrcbookClient) Book(runID string) error {
	return c.do(http.MethodPost, "/book/"+url.PathEscape(runID), nil)
}

// Unbook sends DELETE /book/{run}.
func (c *SrcbookClient) Unbook(runID string) error {
	return c.do(http.MethodDelete, "/book/"+url.PathEscape(runID), nil)
}

// Moderators sends GET /mods, for gameID when set.
func (c *SrcbookClient) Moderators(gameID string) ([]string, error) {
	path := "/mods"
	if gameID != "" {
		path += "?game=" + url.QueryEscape(gameID)
	}
	var mods []string
	if err := c.do(http.MethodGet, path, &mods); err != nil {
		return nil, err
	}
	return mods, nil
}

// Games sends GET /games.
func (c *SrcbookClient) Games() (api.GamesResponse, error) {
	var games api.GamesResponse
	if err := c.do(http.MethodGet, "/games", &games); err != nil {
		return nil, err
	}
	return games, nil
}

// WhoAmI sends GET /auth.
func (c *SrcbookClient) WhoAmI() (string, error) {
	var resp api.AuthResponse
	if err := c.do(http.MethodGet, "/auth", &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// Fetch sends GET /fetch.
func (c *SrcbookClient) Fetch() error {
	return c.do(http.MethodGet, "/fetch", nil)
}

// Cleanup sends POST /cleanup.
func (c *SrcbookClient) Cleanup() ([]string, error) {
	var resp api.CleanupResponse
	if err := c.do(http.MethodPost, "/cleanup", &resp); err != nil {
		return nil, err
	}
	return resp.Deleted, nil
}

func (c *SrcbookClient) do(method, path string, out interface{}) error {
	httpReq, err := http.NewRequest(method, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.APIKey != "" {
		httpReq.Header.Add("X-API-Key", c.APIKey)
	} else if c.Username != "" {
		httpReq.SetBasicAuth(c.Username, c.Password)
	}
	httpReq.Header.Add("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Err != "" {
			msg = apiErr.Err
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
