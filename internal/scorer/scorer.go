package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"closeenough/internal/game"
)

// maxResponseSize bounds how much of a scorer response is read
const maxResponseSize = 1 << 20

// Request is the body sent to the similarity service
type Request struct {
	Target  string              `json:"target"`
	Guesses map[string][]string `json:"guesses"`
}

// Score is a single similarity entry, aligned with the request's guess list
type Score struct {
	Similarity float64 `json:"similarity"`
}

// Response is the similarity service reply
type Response struct {
	Winner  string             `json:"winner"`
	Results map[string][]Score `json:"results"`
}

// Similarities flattens the results into plain score lists
func (r *Response) Similarities() map[string][]float64 {
	out := make(map[string][]float64, len(r.Results))
	for name, scores := range r.Results {
		list := make([]float64, len(scores))
		for i, s := range scores {
			list[i] = s.Similarity
		}
		out[name] = list
	}
	return out
}

// Scorer ranks guesses against a target word
type Scorer interface {
	Score(ctx context.Context, req Request) (*Response, error)
}

// Client calls a remote similarity service over HTTP
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a scorer client for url
func NewClient(url string, timeout time.Duration) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout
	return &Client{url: url, http: httpClient}
}

// Score posts the request and validates the reply. Every failure is
// reported as game.ErrScoringUnavailable.
func (c *Client) Score(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", game.ErrScoringUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", game.ErrScoringUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrScoringUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, fmt.Errorf("%w: scorer returned status %d", game.ErrScoringUnavailable, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", game.ErrScoringUnavailable, err)
	}

	if err := Validate(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks that a response lines up with the request it answers.
// Each guesser needs exactly one finite score per guess, and the winner,
// when named, must be one of the guessers.
func Validate(req Request, resp *Response) error {
	if resp == nil {
		return fmt.Errorf("%w: empty response", game.ErrScoringUnavailable)
	}
	for name, guesses := range req.Guesses {
		scores, ok := resp.Results[name]
		if !ok {
			return fmt.Errorf("%w: no scores for %s", game.ErrScoringUnavailable, name)
		}
		if len(scores) != len(guesses) {
			return fmt.Errorf("%w: %s has %d guesses but %d scores", game.ErrScoringUnavailable, name, len(guesses), len(scores))
		}
		for _, s := range scores {
			if math.IsNaN(s.Similarity) || math.IsInf(s.Similarity, 0) {
				return fmt.Errorf("%w: non-finite score for %s", game.ErrScoringUnavailable, name)
			}
		}
	}
	if resp.Winner != "" {
		if _, ok := req.Guesses[resp.Winner]; !ok {
			return fmt.Errorf("%w: winner %s did not guess", game.ErrScoringUnavailable, resp.Winner)
		}
	}
	return nil
}

// Unavailable is used when no scorer is configured; every call fails
type Unavailable struct{}

// Score always reports that scoring is unavailable
func (Unavailable) Score(context.Context, Request) (*Response, error) {
	return nil, fmt.Errorf("%w: no similarity service configured", game.ErrScoringUnavailable)
}

// New returns an HTTP client for url, or Unavailable when url is empty
func New(url string, timeout time.Duration) Scorer {
	if url == "" {
		return Unavailable{}
	}
	return NewClient(url, timeout)
}
