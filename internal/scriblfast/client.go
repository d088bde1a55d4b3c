// Package scriblfast talks to the scribl game server: a fasthttp client for
// the one-shot REST calls and a websocket for the persistent event stream.
package scriblfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// HeaderProvider injects per-request headers, typically the bearer token.
type HeaderProvider func() map[string]string

// BearerHeader builds a HeaderProvider for a static token. An empty token
// yields no headers.
func BearerHeader(token string) HeaderProvider {
	return func() map[string]string {
		if strings.TrimSpace(token) == "" {
			return nil
		}
		return map[string]string{"Authorization": "Bearer " + token}
	}
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateGame requests a fresh game lobby.
func (c *Client) CreateGame(ctx context.Context) (*scribdto.Game, error) {
	var g scribdto.Game
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/game/new", nil, &g, false); err != nil {
		return nil, err
	}
	return &g, nil
}

// JoinGame enrols a named player and returns the player row plus the bearer
// token for the rest of the session.
func (c *Client) JoinGame(ctx context.Context, gameID, name string) (*scribdto.JoinResult, error) {
	req := scribdto.JoinRequest{Name: name}
	var res scribdto.JoinResult
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/game/"+gameID+"/join", req, &res, false); err != nil {
		return nil, err
	}
	return &res, nil
}

// Game fetches the game snapshot. Safe to retry.
func (c *Client) Game(ctx context.Context, gameID string) (*scribdto.Game, error) {
	var g scribdto.Game
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/game/"+gameID, nil, &g, true); err != nil {
		return nil, err
	}
	return &g, nil
}

// Players fetches the roster snapshot. Safe to retry.
func (c *Client) Players(ctx context.Context, gameID string) ([]scribdto.Player, error) {
	var players []scribdto.Player
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/game/"+gameID+"/players", nil, &players, true); err != nil {
		return nil, err
	}
	return players, nil
}

// UpdatePlayer patches a player's editable fields. The endpoint takes the
// legacy capitalised body shape.
func (c *Client) UpdatePlayer(ctx context.Context, playerID string, edit scribdto.PlayerEdit) (*scribdto.Player, error) {
	var p scribdto.Player
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/player/"+playerID, edit, &p, false); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) MakeGuess(ctx context.Context, gameID, guess string) error {
	var ack scribdto.Ack
	return c.doJSON(ctx, fasthttp.MethodPost, "/game/"+gameID+"/guess", scribdto.GuessRequest{Guess: guess}, &ack, false)
}

func (c *Client) StartGame(ctx context.Context, gameID string) error {
	var ack scribdto.Ack
	return c.doJSON(ctx, fasthttp.MethodPost, "/game/"+gameID+"/start", nil, &ack, false)
}

func (c *Client) SelectWord(ctx context.Context, gameID, word string) error {
	var ack scribdto.Ack
	return c.doJSON(ctx, fasthttp.MethodPost, "/game/"+gameID+"/select_word", scribdto.SelectWordRequest{Word: word}, &ack, false)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	url := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			body := string(resp.Body())
			err := fmt.Errorf("scribl api error: status=%d body=%s", status, truncate(body, 512))
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
