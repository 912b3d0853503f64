// Package coreapi is the HTTP binding to the CoreAPI game service. Binary
// protocol frames travel as raw request/response bodies with an octet-stream
// content type; only login speaks JSON.
package coreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/constants"
	"github.com/gridlab/board-agent/pkg/jwt"
)

const binaryContentType = "application/octet-stream"

// StatusError reports a non-2xx response from the CoreAPI service.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coreapi: %s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Client defines the CoreAPI operations boards use. The codec never retries;
// transport retry policy belongs to the calling service.
type Client interface {
	Login(ctx context.Context, username, password string) error
	RegisterBinary(ctx context.Context, payload []byte) ([]byte, error)
	PollBinary(ctx context.Context) ([]byte, error)
	PostValues(ctx context.Context, payload []byte) error
	PostPowerData(ctx context.Context, payload []byte) error
	ReportProduction(ctx context.Context, payload []byte) error
	ReportConsumption(ctx context.Context, payload []byte) error
	FetchBuildingTable(ctx context.Context) ([]byte, error)
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	jwtManager jwt.JWTManagerInterface
	logger     zerolog.Logger
}

// NewHTTPClient creates a CoreAPI client rooted at baseURL, e.g.
// "http://localhost/coreapi".
func NewHTTPClient(baseURL string, timeout time.Duration, jwtManager jwt.JWTManagerInterface, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		jwtManager: jwtManager,
		logger:     logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates against the CoreAPI and stores the issued bearer token
// in the JWT manager for subsequent requests.
func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("failed to serialize login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+constants.EndpointLogin, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readStatusError(constants.EndpointLogin, resp)
	}

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if decoded.Token == "" {
		return fmt.Errorf("login response carried no token")
	}

	if err := c.jwtManager.SaveJWT(decoded.Token); err != nil {
		return fmt.Errorf("failed to persist session token: %w", err)
	}

	c.logger.Info().Str("username", username).Msg("Logged in to CoreAPI")
	return nil
}

// RegisterBinary posts a registration request frame and returns the raw
// response frame for the caller to decode.
func (c *HTTPClient) RegisterBinary(ctx context.Context, payload []byte) ([]byte, error) {
	return c.postBinary(ctx, constants.EndpointRegisterBinary, payload, true)
}

// PollBinary fetches the current coefficient payload for this board.
func (c *HTTPClient) PollBinary(ctx context.Context) ([]byte, error) {
	return c.getBinary(ctx, constants.EndpointPollBinary)
}

// PostValues submits the compact generation/consumption pair.
func (c *HTTPClient) PostValues(ctx context.Context, payload []byte) error {
	_, err := c.postBinary(ctx, constants.EndpointPostValues, payload, false)
	return err
}

// PostPowerData submits a full timestamped power reading.
func (c *HTTPClient) PostPowerData(ctx context.Context, payload []byte) error {
	_, err := c.postBinary(ctx, constants.EndpointPowerDataBinary, payload, false)
	return err
}

// ReportProduction declares the board's connected power plants.
func (c *HTTPClient) ReportProduction(ctx context.Context, payload []byte) error {
	_, err := c.postBinary(ctx, constants.EndpointProdConnected, payload, false)
	return err
}

// ReportConsumption declares the board's connected consumers.
func (c *HTTPClient) ReportConsumption(ctx context.Context, payload []byte) error {
	_, err := c.postBinary(ctx, constants.EndpointConsConnected, payload, false)
	return err
}

// FetchBuildingTable downloads the versioned building consumption table.
func (c *HTTPClient) FetchBuildingTable(ctx context.Context) ([]byte, error) {
	return c.getBinary(ctx, constants.EndpointBuildingTableBinary)
}

func (c *HTTPClient) postBinary(ctx context.Context, endpoint string, payload []byte, wantBody bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", binaryContentType)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(endpoint, resp)
	}

	if !wantBody {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) getBinary(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(endpoint, resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) authorize(req *http.Request) {
	if token := c.jwtManager.GetJWT(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func readStatusError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}
