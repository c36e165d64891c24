package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// client talks to the mintgate HTTP API
type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newClient(g *globalFlags) *client {
	return &client{
		baseURL: strings.TrimSuffix(g.url, "/"),
		token:   g.token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError is a non-2xx answer of the service
type apiError struct {
	Status int
	Body   struct {
		Error string `json:"error"`
		Code  string `json:"code"`
		Kind  string `json:"kind"`
	}
}

func (e *apiError) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Body.Code, e.Body.Error)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Body.Error)
}

func (c *client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, &apiErr.Body) != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = strings.TrimSpace(string(respBody))
		}
		return nil, apiErr
	}
	return respBody, nil
}

// printJSON re-indents a JSON payload for the terminal
func printJSON(w io.Writer, payload []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "  "); err != nil {
		_, err = w.Write(payload)
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
