package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TokenSource supplies the bearer credential for portal requests.
// Implementations return ErrNoToken (possibly wrapped) when no
// credential is available.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource holding a fixed credential. An empty
// StaticToken yields ErrNoToken.
type StaticToken string

// Token returns the fixed credential.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// Fetcher retrieves the full deadline snapshot for a student.
type Fetcher interface {
	FetchDeadlines(ctx context.Context, studentId string) ([]Deadline, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, studentId string) ([]Deadline, error)

// FetchDeadlines calls f.
func (f FetcherFunc) FetchDeadlines(ctx context.Context, studentId string) ([]Deadline, error) {
	return f(ctx, studentId)
}

// HTTPFetcher fetches deadline snapshots from the portal REST API.
type HTTPFetcher struct {
	// BaseURL is the API root, e.g. "https://portal.example".
	BaseURL string
	// Client is the HTTP client to use. Defaults to http.DefaultClient.
	Client *http.Client
	// Tokens supplies the bearer credential per request.
	Tokens TokenSource
}

// FetchDeadlines GETs {BaseURL}/api/deadlines/{studentId} with a
// bearer credential and decodes the response body.
func (f *HTTPFetcher) FetchDeadlines(ctx context.Context, studentId string) ([]Deadline, error) {
	token, err := f.Tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("fetch deadlines: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/api/deadlines/"+studentId, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch deadlines: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch deadlines: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// Drain so the transport can reuse the connection.
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch deadlines: unexpected status %d", resp.StatusCode)
	}

	var body DeadlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch deadlines: decode: %w", err)
	}
	return body.Deadlines, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
