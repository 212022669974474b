// Package httpx is the shared transport for the backend service wrappers.
// Non-2xx responses surface as *StatusError carrying the raw response text,
// so callers only ever see decoded data from successful responses.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"

	"spm-client/internal/logger"
)

var ErrInvalidJSON = errors.New("response is not valid json")

// StatusError is returned for any response outside 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retries is 0 unless configured; the wrappers themselves never retry.
	Retries int
	// WithCookies keeps one cookie jar across calls, like fetch's credentials: 'include'.
	// Single-user clients only: a server shared by many employees forwards
	// each one's cookies through WithCaller instead.
	WithCookies bool
	Token       string
	Logger      logger.Logger
}

type Client struct {
	rc  *resty.Client
	log logger.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log}).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}
	if opts.Retries > 0 {
		rc.AddRetryCondition(retryCondition)
	}
	if opts.WithCookies {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		rc.SetCookieJar(jar)
	}

	return &Client{rc: rc, log: log}, nil
}

// retryCondition retries transport failures and 5xx/429/408 for methods that
// are safe to repeat. POST never retries: it creates tasks and uploads.
func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || !idempotent(r.Request.Method) {
		return false
	}
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// EmployeeIDHeader tells a service which employee a forwarded call is made for.
const EmployeeIDHeader = "X-Employee-Id"

type callerKey struct{}

// Caller is the end user an upstream call is made on behalf of. Its cookies
// are the ones the user's browser sent us, so each caller keeps its own
// upstream session.
type Caller struct {
	EmployeeID int
	Cookies    []*http.Cookie
}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.rc.R().SetContext(ctx)
	if caller, ok := CallerFromContext(ctx); ok {
		if caller.EmployeeID > 0 {
			req.SetHeader(EmployeeIDHeader, strconv.Itoa(caller.EmployeeID))
		}
		req.SetCookies(caller.Cookies)
	}
	return req
}

// Do sends body as JSON (when non-nil) and returns the raw response body.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	req := c.request(ctx)
	if body != nil {
		req.SetBody(body)
	}
	return c.execute(req, method, path)
}

// DoJSON is Do followed by decoding the body into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return DecodeJSON(raw, out)
}

// Upload posts a single file as multipart/form-data under field.
func (c *Client) Upload(ctx context.Context, path, field, filename string, r io.Reader) ([]byte, error) {
	req := c.request(ctx).SetFileReader(field, filename, r)
	return c.execute(req, http.MethodPost, path)
}

func (c *Client) execute(req *resty.Request, method, path string) ([]byte, error) {
	start := time.Now()
	res, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debug("request", "method", method, "path", path,
		"status", res.StatusCode(), "duration", time.Since(start))

	if !res.IsSuccess() {
		return nil, &StatusError{StatusCode: res.StatusCode(), Body: string(res.Body())}
	}
	return res.Body(), nil
}

func DecodeJSON(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// StatusCode reports the upstream status of err, or 0 if err is not a *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

type restyLogger struct {
	l logger.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }

// RelayError writes an upstream failure back to our own caller: a *StatusError
// keeps the upstream status and text, anything else becomes 502.
func RelayError(w http.ResponseWriter, err error) {
	var se *StatusError
	if errors.As(err, &se) {
		http.Error(w, se.Error(), se.StatusCode)
		return
	}
	if errors.Is(err, ErrInvalidJSON) {
		http.Error(w, "invalid upstream response", http.StatusBadGateway)
		return
	}
	http.Error(w, "upstream unavailable", http.StatusBadGateway)
}
