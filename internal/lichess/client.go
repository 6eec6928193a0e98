package lichess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-duels/internal/ledger"
)

const (
	// DefaultBaseURL is the public Lichess API root.
	DefaultBaseURL = "https://lichess.org/api"
	// DefaultMaxGames is the per-request cap on returned games.
	DefaultMaxGames = 200

	errorBodyLimit = 200
)

// APIClient is the Lichess API client that implements the LichessClient interface.
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
	MaxGames   int
}

// NewClient creates a new Lichess client. Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, maxGames int) LichessClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxGames <= 0 {
		maxGames = DefaultMaxGames
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		MaxGames:   maxGames,
	}
}

// Ensure APIClient implements the LichessClient interface.
var _ LichessClient = (*APIClient)(nil)

// GamesSince fetches up to MaxGames games of username created at or after
// sinceMs, oldest first. The response is NDJSON; blank or malformed lines and
// games without an id are skipped.
func (c *APIClient) GamesSince(ctx context.Context, username string, sinceMs int64) ([]ledger.Game, error) {
	q := url.Values{}
	q.Set("max", strconv.Itoa(c.MaxGames))
	q.Set("since", strconv.FormatInt(sinceMs, 10))
	// Oldest first, so a capped batch leaves the cursor inside the backlog.
	q.Set("sort", "dateAsc")
	endpoint := fmt.Sprintf("%s/games/user/%s?%s", c.BaseURL, url.PathEscape(username), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("User-Agent", "ChessDuels/1.0")

	log.Debug("Requesting games from Lichess", "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		log.Error("Received non-OK HTTP status from Lichess", "status", resp.StatusCode, "username", username, "body", string(body))
		return nil, &FeedFetchError{Username: username, StatusCode: resp.StatusCode, Body: string(body)}
	}

	games, err := parseGames(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read games for %s: %w", username, err)
	}
	log.Debug("Fetched games from Lichess", "username", username, "since", sinceMs, "count", len(games))
	return games, nil
}

// parseGames reads NDJSON until EOF. A read error fails the whole batch;
// a line that does not decode or carries no id is dropped.
func parseGames(r io.Reader) ([]ledger.Game, error) {
	games := []ledger.Game{}
	reader := bufio.NewReader(r)
	for {
		line, readErr := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var raw gameLine
			if err := json.Unmarshal(trimmed, &raw); err != nil {
				log.Debug("Skipping malformed game line", "error", err)
			} else if strings.TrimSpace(raw.ID) == "" {
				log.Debug("Skipping game without id")
			} else {
				games = append(games, normalizeGame(raw))
			}
		}
		if errors.Is(readErr, io.EOF) {
			return games, nil
		}
		if readErr != nil {
			return nil, readErr
		}
	}
}

func normalizeGame(raw gameLine) ledger.Game {
	g := ledger.Game{
		ID:        raw.ID,
		White:     strings.TrimSpace(raw.Players.White.name()),
		Black:     strings.TrimSpace(raw.Players.Black.name()),
		CreatedAt: parseCreatedAt(raw.CreatedAt),
	}
	switch strings.ToLower(raw.Winner) {
	case "white":
		g.Winner = ledger.WinnerWhite
	case "black":
		g.Winner = ledger.WinnerBlack
	default:
		g.Winner = ledger.WinnerNone
	}
	return g
}

// parseCreatedAt accepts epoch millis as a number or string, or an RFC 3339
// timestamp. Anything else yields 0.
func parseCreatedAt(raw json.RawMessage) int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			return v
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// Account resolves a personal API token to its Lichess username.
func (c *APIClient) Account(ctx context.Context, token string) (Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Account{}, ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/account", nil)
	if err != nil {
		return Account{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Lichess rejected account token", "status", resp.StatusCode)
		return Account{}, ErrInvalidToken
	}

	var body accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if body.Username == "" {
		return Account{}, ErrUnexpectedResponse
	}
	return Account{Username: body.Username}, nil
}
