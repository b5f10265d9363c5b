package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	cblog "github.com/charmbracelet/log"
	appcontext "github.com/darksworm/mongonaut/pkg/context"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/retry"
	"github.com/tidwall/gjson"
)

// Error kinds reported in Result.ErrorKind
const (
	KindAlreadyExists     = "already-exists"
	KindNotFound          = "not-found"
	KindInvalidConnection = "invalid-connection"
	KindUnauthorized      = "unauthorized"
	KindUnknown           = "unknown"
)

// Result is the server-reported outcome of one gateway call
type Result struct {
	Success   bool
	Payload   gjson.Result
	ErrorKind string
	Code      string
	Message   string
}

// Requester issues a gateway call. Transport failures are returned as
// errors; server-reported failures come back as a Result with Success false.
type Requester interface {
	Request(ctx context.Context, method, path string, body []byte) (Result, error)
}

// Client represents an HTTP client for the mViewer gateway
type Client struct {
	baseURL    string
	httpClient *http.Client
	history    *History
}

var customHTTPClient *http.Client

// SetHTTPClient sets a custom HTTP client to be used by all new Client instances
func SetHTTPClient(client *http.Client) {
	customHTTPClient = client
}

// NewClient creates a new gateway client. history may be nil.
func NewClient(baseURL string, history *History) *Client {
	var httpClient *http.Client
	if customHTTPClient != nil {
		httpClient = &http.Client{
			Transport:     customHTTPClient.Transport,
			CheckRedirect: customHTTPClient.CheckRedirect,
			Jar:           customHTTPClient.Jar,
			Timeout:       customHTTPClient.Timeout,
		}
	} else {
		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ResponseHeaderTimeout: 10 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
		}
		// No client timeout; requests use context timeouts
		httpClient = &http.Client{Transport: transport}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		history:    history,
	}
}

// History returns the request log, if any
func (c *Client) History() *History {
	return c.history
}

// BuildPath joins escaped segments and scopes the path to a connection,
// e.g. BuildPath("1_ab", "shop", "collection", "orders") ->
// "shop/collection/orders?connectionId=1_ab".
func BuildPath(connectionID string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	p := strings.Join(escaped, "/")
	if connectionID != "" {
		p += "?connectionId=" + url.QueryEscape(connectionID)
	}
	return p
}

// Request performs one gateway call. Reads are retried on transport errors;
// mutations are issued exactly once.
func (c *Client) Request(ctx context.Context, method, path string, body []byte) (Result, error) {
	var cancel context.CancelFunc
	switch {
	case method == http.MethodGet:
		ctx, cancel = appcontext.WithTimeout(ctx, appcontext.OpRead)
	case strings.HasPrefix(path, "login"):
		ctx, cancel = appcontext.WithTimeout(ctx, appcontext.OpLogin)
	default:
		ctx, cancel = appcontext.WithTimeout(ctx, appcontext.OpMutation)
	}
	defer cancel()

	start := time.Now()
	var raw []byte
	var err error
	if method == http.MethodGet {
		err = retry.Reads.Do(ctx, "GET "+path, func(attempt int) error {
			var opErr error
			raw, opErr = c.request(ctx, method, path, body)
			return opErr
		})
	} else {
		raw, err = c.request(ctx, method, path, body)
	}

	if err != nil {
		c.record(method, path, start, "error", apperrors.UserMessage(err))
		return Result{}, err
	}

	result, err := parseEnvelope(raw)
	if err != nil {
		c.record(method, path, start, "error", err.Error())
		return Result{}, err
	}
	if result.Success {
		c.record(method, path, start, "ok", "")
	} else {
		c.record(method, path, start, result.ErrorKind, result.Message)
	}
	return result, nil
}

func (c *Client) record(method, path string, start time.Time, outcome, detail string) {
	if c.history == nil {
		return
	}
	c.history.Add(Entry{
		At:       start,
		Method:   method,
		Path:     path,
		Outcome:  outcome,
		Detail:   detail,
		Duration: time.Since(start),
	})
}

// request performs the actual HTTP request
func (c *Client) request(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "REQUEST_CREATE_FAILED",
			"Failed to create HTTP request").
			WithContext("method", method).
			WithContext("url", endpoint).
			WithUserAction("Check the gateway URL and try again")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.TimeoutError("REQUEST_TIMEOUT",
				"Request timed out - gateway may be unreachable").
				WithContext("method", method).
				WithContext("url", endpoint).
				WithUserAction("Check your connection to the gateway and try again")
		}

		if ctx.Err() == context.Canceled {
			return nil, apperrors.New(apperrors.ErrorInternal, "REQUEST_CANCELLED",
				"Request was cancelled").
				WithContext("method", method).
				WithContext("url", endpoint)
		}

		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, apperrors.TimeoutError("NETWORK_TIMEOUT",
				"Network connection timed out").
				WithContext("method", method).
				WithContext("url", endpoint).
				WithUserAction("Gateway may be unreachable - check your connection")
		}

		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "HTTP_REQUEST_FAILED",
			"Gateway request failed").
			WithContext("method", method).
			WithContext("url", endpoint).
			AsRecoverable().
			WithUserAction("Check your network connection and that the gateway is running")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "RESPONSE_READ_FAILED",
			"Failed to read response body").
			WithContext("method", method).
			WithContext("url", endpoint).
			WithUserAction("Try the request again")
	}

	// An mViewer envelope is authoritative even on an error status
	if resp.StatusCode >= 400 && !gjson.GetBytes(respBody, "response").Exists() {
		cblog.With("component", "api", "op", "http").Error("http error",
			"method", method,
			"url", endpoint,
			"status", resp.StatusCode,
			"len", len(respBody),
		)
		cblog.With("component", "api").Debug("response body", "body", truncate(string(respBody), 2048))

		return nil, createAPIError(resp.StatusCode, string(respBody), endpoint).
			WithContext("method", method).
			WithContext("path", path)
	}

	return respBody, nil
}

// parseEnvelope decodes {"response":{"result":...}} or
// {"response":{"error":{"code":...,"message":...}}}
func parseEnvelope(raw []byte) (Result, error) {
	if !gjson.ValidBytes(raw) {
		return Result{}, apperrors.New(apperrors.ErrorAPI, "INVALID_RESPONSE",
			"Gateway returned a malformed response").
			WithDetails(truncate(string(raw), 200))
	}

	response := gjson.GetBytes(raw, "response")
	if !response.Exists() {
		return Result{}, apperrors.New(apperrors.ErrorAPI, "INVALID_RESPONSE",
			"Gateway response has no envelope").
			WithDetails(truncate(string(raw), 200))
	}

	if errNode := response.Get("error"); errNode.Exists() {
		code := errNode.Get("code").String()
		message := errNode.Get("message").String()
		if message == "" {
			message = code
		}
		return Result{
			Success:   false,
			ErrorKind: ErrorKindFor(code),
			Code:      code,
			Message:   message,
		}, nil
	}

	return Result{Success: true, Payload: response.Get("result")}, nil
}

// ErrorKindFor maps a gateway error code to an error kind
func ErrorKindFor(code string) string {
	switch {
	case code == "DB_ALREADY_EXISTS", code == "COLLECTION_ALREADY_EXISTS", code == "BUCKET_ALREADY_EXISTS":
		return KindAlreadyExists
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return KindNotFound
	case code == "INVALID_CONNECTION":
		return KindInvalidConnection
	case code == "NEED_AUTHORISATION", code == "INVALID_USERNAME":
		return KindUnauthorized
	default:
		return KindUnknown
	}
}

// createAPIError creates a structured API error based on status code and response
func createAPIError(statusCode int, responseBody, endpoint string) *apperrors.AppError {
	var category apperrors.ErrorCategory
	var code, message, userAction string
	var recoverable bool

	switch statusCode {
	case 401, 403:
		category = apperrors.ErrorAuth
		code = "UNAUTHORIZED"
		message = "Gateway rejected the request"
		userAction = "Reconnect and try again"
	case 404:
		category = apperrors.ErrorAPI
		code = "NOT_FOUND"
		message = "Gateway route not found"
		userAction = "Check that the gateway URL points at a mongonaut gateway"
	case 429:
		category = apperrors.ErrorAPI
		code = "RATE_LIMITED"
		message = "Too many requests - rate limited"
		userAction = "Wait a moment and try again"
		recoverable = true
	case 500, 502, 504:
		category = apperrors.ErrorAPI
		code = "SERVER_ERROR"
		message = "Gateway server error"
		userAction = "Check the gateway logs and try again"
		recoverable = true
	case 503:
		category = apperrors.ErrorAPI
		code = "SERVICE_UNAVAILABLE"
		message = "Gateway is unavailable"
		userAction = "Wait for the gateway to come back and try again"
		recoverable = true
	default:
		category = apperrors.ErrorAPI
		code = "API_ERROR"
		message = fmt.Sprintf("Gateway request failed with status %d", statusCode)
		userAction = "Check the request and try again"
		recoverable = true
	}

	err := apperrors.New(category, code, message).
		WithDetails(truncate(responseBody, 500)).
		WithContext("statusCode", statusCode).
		WithContext("url", endpoint).
		WithUserAction(userAction)
	if recoverable {
		err.AsRecoverable()
	}
	return err
}

// truncate keeps the first n runes of s
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
