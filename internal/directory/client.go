package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"steammatch/internal/steamtypes"
	"steammatch/pkg/ratelimit"
	"steammatch/pkg/retry"

	"go.uber.org/zap"
)

// Client is the HTTP client for the directory API family described in
// spec.md §6: POST /Api/HeartBeat, POST /Api/Announce, GET /Api/Bots.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.RateLimiter
	retry   retry.Config
	logger  *zap.SugaredLogger
}

// NewClient builds a directory client against baseURL (e.g.
// "https://matchbot-statistics.example"). The rate limiter defaults
// mirror the teacher's per-exchange defaults in pkg/ratelimit: modest
// request volume, since the directory is contacted at most a few times
// per hour per bot.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	retryCfg := retry.ConservativeConfig()
	retryCfg.RetryIf = retry.IsRetryable
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: ratelimit.NewRateLimiter(2, 4),
		retry:   retryCfg,
		logger:  logger,
	}
}

// HeartbeatRequest is the form-encoded payload for /Api/HeartBeat (§6).
type HeartbeatRequest struct {
	SteamID uint64
	Guid    string
}

// Heartbeat posts a heartbeat. "Success" is any non-null HTTP response
// (§4.3); network errors and non-2xx statuses are reported as a non-nil
// error and must never advance last_heartbeat on the caller's side.
func (c *Client) Heartbeat(ctx context.Context, req HeartbeatRequest) error {
	form := url.Values{
		"SteamID": {strconv.FormatUint(req.SteamID, 10)},
		"Guid":    {req.Guid},
	}
	_, err := c.post(ctx, "/Api/HeartBeat", form)
	return err
}

// AnnounceRequest is the form-encoded payload for /Api/Announce (§4.3
// step 6, §6).
type AnnounceRequest struct {
	SteamID         uint64
	Guid            string
	Nickname        string
	AvatarHash      string
	GamesCount      int
	ItemsCount      int
	MatchableTypes  steamtypes.TypeSet
	MatchEverything bool
	TradeToken      string
}

// Announce posts an announcement. Attempted at most once by the caller —
// this method itself performs no retries (§4.3 step 6: "attempted at most
// once (no retry)").
func (c *Client) Announce(ctx context.Context, req AnnounceRequest) error {
	typesJSON, err := marshalMatchableTypes(req.MatchableTypes.Slice())
	if err != nil {
		return fmt.Errorf("encode matchable_types: %w", err)
	}

	form := url.Values{
		"SteamID":        {strconv.FormatUint(req.SteamID, 10)},
		"Guid":           {req.Guid},
		"Nickname":       {req.Nickname},
		"AvatarHash":     {req.AvatarHash},
		"GamesCount":     {strconv.Itoa(req.GamesCount)},
		"ItemsCount":     {strconv.Itoa(req.ItemsCount)},
		"MatchableTypes": {typesJSON},
		"MatchEverything": {boolField(req.MatchEverything)},
		"TradeToken":     {req.TradeToken},
	}
	_, err = c.postNoRetry(ctx, "/Api/Announce", form)
	return err
}

// FetchBots retrieves the directory (GET /Api/Bots, §6). Malformed
// entries are dropped individually (logged at Warn) without failing the
// whole fetch (§7 "Bad directory entry").
func (c *Client) FetchBots(ctx context.Context) ([]ListedUser, error) {
	body, err := c.getWithRetry(ctx, "/Api/Bots")
	if err != nil {
		return nil, err
	}

	raw, err := unmarshalBotsResponse(body)
	if err != nil {
		return nil, fmt.Errorf("decode /Api/Bots response: %w", err)
	}

	users := make([]ListedUser, 0, len(raw))
	for _, entry := range raw {
		if u, ok := decodeWireEntry(entry, c.logger); ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// post performs a single POST attempt with a rate-limiter wait but no
// retry loop — used by paths whose callers own the retry/no-retry policy.
func (c *Client) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.doForm(ctx, path, form)
}

// postNoRetry is an explicit alias for post, documenting the §4.3 step 6
// "attempted at most once" requirement at the call site.
func (c *Client) postNoRetry(ctx context.Context, path string, form url.Values) ([]byte, error) {
	return c.post(ctx, path, form)
}

// getWithRetry performs the directory fetch with the conservative retry
// policy — transient failures here should not stall an entire matching
// round (§7 "Transient remote failure").
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	return retry.DoWithResult(ctx, func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, retry.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, retry.Temporary(err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, retry.Temporary(err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, retry.Temporary(fmt.Errorf("directory GET %s: status %d", path, resp.StatusCode))
		}
		return body, nil
	}, c.retry)
}

func (c *Client) doForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("directory POST %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}
