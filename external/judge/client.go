package judge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/algoclub/arena/internal/domain/contest"
	"github.com/algoclub/arena/internal/platform/logging"
	"github.com/algoclub/arena/internal/platform/resilience"
	"github.com/algoclub/arena/internal/usecase"
)

const (
	defaultBaseURL     = "https://judge.algoclub.dev/api"
	maxSnapshotBytes   = 12 << 20
	sessionTokenHeader = "X-Session-Id"
)

var errJudgeTransient = crerr.New("judge transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	SessionToken   string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	sessionToken   string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		sessionToken:   strings.TrimSpace(cfg.SessionToken),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchSnapshot retrieves one contest's raw roster and submission log
// and converts it to the internal snapshot shape. Shape defects in the
// payload surface as contest.ErrInvalidSnapshot; transport and session
// failures as usecase.ErrUpstreamUnavailable.
func (c *Client) FetchSnapshot(ctx context.Context, contestID string) (contest.Snapshot, error) {
	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return contest.Snapshot{}, fmt.Errorf("contest id is required")
	}

	path := "/contests/" + url.PathEscape(contestID)
	raw, err := c.doRequest(ctx, path)
	if err != nil {
		return contest.Snapshot{}, fmt.Errorf("fetch contest snapshot contest_id=%s: %w", contestID, err)
	}

	var payload rawSnapshot
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return contest.Snapshot{}, fmt.Errorf("%w: decode judge payload: %v", contest.ErrInvalidSnapshot, err)
	}
	if strings.EqualFold(payload.Status, "error") {
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			message = "judge reported an unspecified failure"
		}
		return contest.Snapshot{}, fmt.Errorf("%w: judge error code=%s: %s", usecase.ErrUpstreamUnavailable, payload.Code, message)
	}

	snapshot, err := payload.toSnapshot()
	if err != nil {
		return contest.Snapshot{}, fmt.Errorf("contest_id=%s: %w", contestID, err)
	}

	return snapshot, nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "judge circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: judge platform is temporarily unavailable", usecase.ErrUpstreamUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errJudgeTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.sessionToken != "" {
			req.Header.Set(sessionTokenHeader, c.sessionToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errJudgeTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errJudgeTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: judge status=%d", errJudgeTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("%w: judge status=%d", usecase.ErrUpstreamUnavailable, resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("judge request failed")
	}
	c.logger.WarnContext(ctx, "judge request failed", "url", fullURL, "error", lastErr)
	return nil, fmt.Errorf("%w: %v", usecase.ErrUpstreamUnavailable, lastErr)
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

// rawSnapshot mirrors the judge's wire shape: roster entries are
// positional string arrays and submissions are positional mixed-type
// arrays, so fields are mapped defensively.
type rawSnapshot struct {
	Status       string              `json:"status"`
	Message      string              `json:"message"`
	Code         string              `json:"code"`
	ID           any                 `json:"id"`
	Title        string              `json:"title"`
	Begin        int64               `json:"begin"`
	Length       int64               `json:"length"`
	Participants map[string][]string `json:"participants"`
	Submissions  [][]any             `json:"submissions"`
}

func (r rawSnapshot) toSnapshot() (contest.Snapshot, error) {
	id := anyToString(r.ID)
	if id == "" {
		return contest.Snapshot{}, fmt.Errorf("%w: missing contest id", contest.ErrInvalidSnapshot)
	}
	if r.Participants == nil {
		return contest.Snapshot{}, fmt.Errorf("%w: missing participants", contest.ErrInvalidSnapshot)
	}
	if r.Submissions == nil {
		return contest.Snapshot{}, fmt.Errorf("%w: missing submissions", contest.ErrInvalidSnapshot)
	}

	roster := make(map[string]contest.RosterEntry, len(r.Participants))
	for teamID, fields := range r.Participants {
		entry := contest.RosterEntry{}
		if len(fields) > 0 {
			entry.Username = strings.TrimSpace(fields[0])
		}
		if len(fields) > 1 {
			entry.DisplayName = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			entry.AvatarURL = strings.TrimSpace(fields[2])
		}
		roster[teamID] = entry
	}

	submissions := make([]contest.Submission, 0, len(r.Submissions))
	for i, row := range r.Submissions {
		if len(row) < 4 {
			return contest.Snapshot{}, fmt.Errorf("%w: submission row %d has %d fields", contest.ErrInvalidSnapshot, i, len(row))
		}
		sub := contest.Submission{
			TeamID:         anyToString(row[0]),
			ProblemIndex:   int(anyToInt64(row[1])),
			Verdict:        strings.ToUpper(anyToString(row[2])),
			ElapsedSeconds: anyToInt64(row[3]),
		}
		if len(row) > 4 {
			sub.CumulativeScore = anyToFloat64(row[4])
		}
		submissions = append(submissions, sub)
	}

	return contest.Snapshot{
		ID:          id,
		Title:       strings.TrimSpace(r.Title),
		BeginAt:     time.UnixMilli(r.Begin).UTC(),
		DurationMs:  r.Length,
		Roster:      roster,
		Submissions: submissions,
	}, nil
}

func anyToString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", typed))
	}
}

func anyToInt64(value any) int64 {
	switch typed := value.(type) {
	case float64:
		return int64(typed)
	case int64:
		return typed
	case int:
		return int64(typed)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func anyToFloat64(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
