package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

// requestTimeout stays below the API write timeout: the call runs while the
// mint transaction holds the only database connection.
const requestTimeout = 5 * time.Second

var (
	// ErrRejected is returned when the issuance service refuses a unit
	ErrRejected = controls.ErrIssuanceRejected
	// ErrUnavailable is returned when the issuance service fails or cannot be reached
	ErrUnavailable = errors.New("issuance service unavailable")
)

// Client issues units through a remote issuance service and mirrors each
// issued unit into the host store.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// Rate limiting
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration

	now func() time.Time
}

// NewClient creates a new issuance service client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		minDelay: 100 * time.Millisecond, // ~10 RPS
		now:      time.Now,
	}
}

func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastCall)
	if elapsed < c.minDelay {
		time.Sleep(c.minDelay - elapsed)
	}
	c.lastCall = time.Now()
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	c.throttle()

	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Code == controls.ErrMintedOut.Code {
			return nil, fmt.Errorf("%w: %s", controls.ErrMintedOut, apiErr.Error)
		}
		return nil, fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(data)))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: API error %d: %s", ErrUnavailable, resp.StatusCode, string(data))
	}

	return data, nil
}

// Issue asks the service for one unit and records it in tx. The store's
// minted-out check runs first so a full collection never reaches the service.
func (c *Client) Issue(ctx context.Context, tx *storage.Tx, req Request) (*storage.IssuedToken, error) {
	d, err := tx.Deployment(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	if d.MintedOut() {
		return nil, fmt.Errorf("%w: %d of %d", controls.ErrMintedOut, d.Supply, d.MaxSupply)
	}

	item, err := c.MintItem(ctx, req.Collection, req.Owner, req.Phase, d.Supply+1)
	if err != nil {
		return nil, err
	}
	if item.TokenID == "" {
		return nil, fmt.Errorf("%w: empty token id", ErrRejected)
	}
	return tx.RecordIssued(ctx, req.Collection, req.Owner, req.Phase, item.TokenID, c.now())
}

// MintItem issues one unit of collection to owner
func (c *Client) MintItem(ctx context.Context, collection, owner controls.Address, phase uint32, number uint64) (*MintedItem, error) {
	body := mintItemRequest{Owner: owner.String(), Phase: phase, Number: number}
	data, err := c.doRequest(ctx, http.MethodPost, "/collections/"+collection.String()+"/items", body)
	if err != nil {
		return nil, err
	}

	var item MintedItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return &item, nil
}

// Ping checks that the service answers
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}
