package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/config"
	"github.com/brettbedarf/projfs/internal/util"
	"github.com/brettbedarf/projfs/requests"
	"github.com/google/uuid"
)

// DefaultAPIPrefix is used when a server URL has no path
const DefaultAPIPrefix = "/api"

// HTTPClient is the subset of *http.Client the backend needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPBackend implements [projfs.Backend] against a remote projfs server.
// Error codes in responses are mapped back onto the projfs sentinels.
type HTTPBackend struct {
	base   string // scheme://host[:port]/prefix without trailing slash
	client HTTPClient
}

var _ projfs.Backend = (*HTTPBackend)(nil)

func openHTTP(target string, cfg *config.Config) (projfs.Backend, error) {
	timeout := time.Duration(cfg.ClientTimeout * float64(time.Second))
	return NewHTTPBackend(target, &http.Client{Timeout: timeout})
}

// NewHTTPBackend validates rawURL and creates a backend for it. A URL with
// no path talks to [DefaultAPIPrefix]; any other path is used as the API
// prefix as-is (Ex. "http://host:3030/api/fs").
func NewHTTPBackend(rawURL string, client HTTPClient) (*HTTPBackend, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", rawURL)
	}
	if u.User != nil {
		return nil, fmt.Errorf("invalid server URL %q: user info is not supported", rawURL)
	}
	u.RawQuery, u.Fragment = "", ""
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = DefaultAPIPrefix
	}
	if client == nil {
		client = &http.Client{Timeout: time.Duration(config.DefaultClientTimeout * float64(time.Second))}
	}
	return &HTTPBackend{base: u.String(), client: client}, nil
}

// BaseURL returns the API prefix requests are sent to
func (h *HTTPBackend) BaseURL() string {
	return h.base
}

func (h *HTTPBackend) List(ctx context.Context, dir string) (*projfs.Listing, error) {
	var dto requests.ListResponseDTO
	if err := h.do(ctx, http.MethodGet, "/list?dir="+url.QueryEscape(dir), nil, &dto); err != nil {
		return nil, err
	}
	return dto.Listing()
}

func (h *HTTPBackend) Create(ctx context.Context, currentDir, input string) (*projfs.Created, error) {
	var dto requests.CreateResponseDTO
	body := requests.NewCreateRequest(currentDir, input)
	if err := h.do(ctx, http.MethodPost, "/create", body, &dto); err != nil {
		return nil, err
	}
	return dto.Created()
}

// do performs a JSON request and decodes a successful body into out
func (h *HTTPBackend) do(ctx context.Context, method, path string, body any, out any) error {
	logger := util.GetLogger("HTTPBackend")

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Trace().Str("method", method).Str("url", req.URL.String()).Str("request_id", reqID).Msg("Sending request")
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError rebuilds a failure response as a projfs error. Bodies that
// are not in the failure shape become a generic API error.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var dto requests.ErrorResponseDTO
	if err := json.Unmarshal(raw, &dto); err != nil || dto.Code == "" {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	err := dto.Err()
	if projfs.CodeOf(err) != projfs.CodeInternal {
		return err
	}
	return fmt.Errorf("API error (status %d): %w", resp.StatusCode, err)
}
