// Package agent talks to an SSI agent's admin API: writing nyms to the ledger
// and managing present-proof exchange records.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HeaderAPIKey authenticates calls to the agent admin API.
const HeaderAPIKey = "X-API-Key"

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20
	proofRecordLimit = 100
)

// ErrUnexpectedStatus is wrapped when the agent answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected agent status")

// NymRequest is one ledger write. An empty Role registers a plain nym.
type NymRequest struct {
	DID    string
	Verkey string
	Alias  string
	Role   string
}

// ProofRecord is the subset of a present-proof v2 exchange record the
// verifier needs.
type ProofRecord struct {
	PresExID  string `json:"pres_ex_id"`
	Role      string `json:"role"`
	State     string `json:"state"`
	UpdatedAt string `json:"updated_at"`
}

// UpdatedAtTime parses the agent's timestamp. The agent emits RFC 3339 with
// either a "T" or a space between date and time.
func (r ProofRecord) UpdatedAtTime() (time.Time, error) {
	raw := strings.Replace(strings.TrimSpace(r.UpdatedAt), " ", "T", 1)
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing updated_at of %s: %w", r.PresExID, err)
	}
	return t, nil
}

// Client is an agent admin API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New builds a client for the admin API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterNym writes a DID and verkey to the ledger through the agent.
// Parameters travel in the query string, as the admin API expects.
func (c *Client) RegisterNym(ctx context.Context, nym NymRequest) error {
	q := url.Values{}
	q.Set("did", nym.DID)
	q.Set("verkey", nym.Verkey)
	if nym.Alias != "" {
		q.Set("alias", nym.Alias)
	}
	if nym.Role != "" {
		q.Set("role", nym.Role)
	}
	body, err := c.do(ctx, http.MethodPost, "/ledger/register-nym", q, nil)
	if err != nil {
		return fmt.Errorf("register nym %s: %w", nym.DID, err)
	}
	return body.Close()
}

// ListProofRecords returns the most recent present-proof exchange records.
func (c *Client) ListProofRecords(ctx context.Context) ([]ProofRecord, error) {
	q := url.Values{}
	q.Set("descending", "true")
	q.Set("limit", fmt.Sprint(proofRecordLimit))
	q.Set("offset", "0")
	body, err := c.do(ctx, http.MethodGet, "/present-proof-2.0/records", q, nil)
	if err != nil {
		return nil, fmt.Errorf("list proof records: %w", err)
	}
	defer body.Close()

	var resp struct {
		Results []ProofRecord `json:"results"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding proof records: %w", err)
	}
	return resp.Results, nil
}

// SendProblemReport abandons a proof exchange with the given description.
func (c *Client) SendProblemReport(ctx context.Context, presExID, description string) error {
	payload, err := json.Marshal(map[string]string{"description": description})
	if err != nil {
		return fmt.Errorf("encoding problem report: %w", err)
	}
	path := "/present-proof-2.0/records/" + url.PathEscape(presExID) + "/problem-report"
	body, err := c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("problem report %s: %w", presExID, err)
	}
	return body.Close()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload io.Reader) (io.ReadCloser, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return readCloser{Reader: io.LimitReader(resp.Body, maxResponseBytes), Closer: resp.Body}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
