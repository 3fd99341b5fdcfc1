// Package gameclient is the Go client for the puzzle backend. It speaks the
// /v1/modle HTTP surface with cookie-session auth and drives the optimistic
// update protocol used by interactive frontends: apply locally, report to the
// authoritative store, then re-read and reconcile or roll back.
package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"modleapp/internal/api"
	"modleapp/internal/config"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	contextutils "modleapp/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// Client talks to one backend over HTTP. The zero value is not usable; use
// NewClient. Safe for concurrent use once logged in.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a client for the backend at baseURL. Session cookies set
// by Login are kept in an in-memory jar for the life of the client.
func NewClient(baseURL string, logger *observability.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create cookie jar")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Jar:       jar,
			Timeout:   config.DefaultHTTPTimeout,
		},
		logger: logger,
	}, nil
}

// Login authenticates the client's session. All subsequent calls reuse the
// session cookie.
func (c *Client) Login(ctx context.Context, username, password string) (err error) {
	ctx, span := observability.TraceClientFunction(ctx, "login",
		attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	body := api.LoginRequest{Username: username, Password: password}
	var resp api.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", nil, body, &resp); err != nil {
		return err
	}
	return nil
}

// Logout clears the server-side session.
func (c *Client) Logout(ctx context.Context) (err error) {
	ctx, span := observability.TraceClientFunction(ctx, "logout")
	defer observability.FinishSpan(span, &err)

	return c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, nil)
}

// GetPuzzle fetches the playable view of one day's puzzle: the answer the
// session scores guesses against, the hint list, and the date.
func (c *Client) GetPuzzle(ctx context.Context, language models.Language, date string) (result0 *api.Puzzle, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "get_puzzle",
		attribute.String("puzzle.language", string(language)),
		attribute.String("puzzle.date", date))
	defer observability.FinishSpan(span, &err)

	var puzzle api.Puzzle
	path := fmt.Sprintf("/v1/modle/puzzle/%s/%s", url.PathEscape(string(language)), url.PathEscape(date))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &puzzle); err != nil {
		return nil, err
	}
	return &puzzle, nil
}

// GetStatus fetches the authoritative play status. An empty language asks for
// the global scope.
func (c *Client) GetStatus(ctx context.Context, language models.Language) (result0 *api.StatusResponse, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "get_status",
		attribute.String("status.language", string(language)))
	defer observability.FinishSpan(span, &err)

	query := url.Values{}
	if language == "" {
		query.Set("scope", string(api.StatusScopeGlobal))
	} else {
		query.Set("language", string(language))
	}

	var status api.StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/modle/status", query, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SubmitResult reports a closed day to the authoritative store. A 409 from
// the daily gate surfaces as ErrAlreadyPlayedToday or ErrDailyLimitReached.
func (c *Client) SubmitResult(ctx context.Context, req api.ResultRequest) (result0 *api.ResultResponse, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "submit_result",
		attribute.String("result.language", string(req.Language)),
		attribute.Bool("result.correct", req.Correct))
	defer observability.FinishSpan(span, &err)

	var resp api.ResultResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/modle/result", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HasPlayed reports whether the authenticated user already has a closed day
// for the given date in any language.
func (c *Client) HasPlayed(ctx context.Context, date string) (result0 bool, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "has_played",
		attribute.String("play.date", date))
	defer observability.FinishSpan(span, &err)

	var resp struct {
		Date   string `json:"date"`
		Played bool   `json:"played"`
	}
	path := "/v1/modle/played/" + url.PathEscape(date)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Played, nil
}

// doJSON performs one request against the backend, encoding body when non-nil
// and decoding the response into out when non-nil. Non-2xx responses are
// mapped onto the shared error taxonomy via the body's error code.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return contextutils.WrapError(err, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return contextutils.WrapError(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrNetworkFailure, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return contextutils.WrapError(err, "failed to decode response body")
	}
	return nil
}

// errorFromResponse turns an error response into the matching sentinel so
// callers can branch with contextutils.IsError.
func (c *Client) errorFromResponse(resp *http.Response) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(raw, &payload)

	if c.logger != nil {
		c.logger.Warn(context.Background(), "Backend returned error response", map[string]interface{}{
			"http.status_code": resp.StatusCode,
			"error.code":       payload.Code,
		})
	}

	switch contextutils.ErrorCode(payload.Code) {
	case contextutils.ErrorCodeAlreadyPlayedToday:
		return contextutils.ErrAlreadyPlayedToday
	case contextutils.ErrorCodeDailyLimitReached:
		return contextutils.ErrDailyLimitReached
	case contextutils.ErrorCodePuzzleNotFound:
		return contextutils.ErrPuzzleNotFound
	case contextutils.ErrorCodeRecordNotFound:
		return contextutils.ErrRecordNotFound
	case contextutils.ErrorCodeUnauthorized:
		return contextutils.ErrUnauthorized
	case contextutils.ErrorCodeSessionExpired:
		return contextutils.ErrSessionExpired
	case contextutils.ErrorCodeInvalidCredentials:
		return contextutils.ErrInvalidCredentials
	case contextutils.ErrorCodeForbidden:
		return contextutils.ErrForbidden
	case contextutils.ErrorCodeContentUnavailable:
		return contextutils.ErrContentUnavailable
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return contextutils.ErrUnauthorized
	case http.StatusNotFound:
		return contextutils.ErrRecordNotFound
	case http.StatusConflict:
		return contextutils.ErrAlreadyPlayedToday
	case http.StatusServiceUnavailable:
		return contextutils.ErrServiceUnavailable
	default:
		return contextutils.ErrorWithContextf("backend request failed with status %d: %s", resp.StatusCode, payload.Message)
	}
}
