// Package flasharray implements a client for the Pure Storage FlashArray
// REST 2.x API. It owns session login, REST version negotiation, and the
// uniform items/errors envelope; per-resource call groups live in the
// sibling files.
package flasharray

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/mvachon/purefa/internal/apiversion"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

// maxSupportedRESTVersion caps version negotiation at the newest API shape
// this client understands.
const maxSupportedRESTVersion = "2.38"

const authTokenHeader = "x-auth-token"

// Options describes client configuration supplied at creation time.
type Options struct {
	// Endpoint is the array management address, with or without scheme.
	Endpoint string
	// APIToken authenticates the session login.
	APIToken string
	// VerifyTLS controls certificate verification. Arrays commonly ship
	// with self-signed management certificates.
	VerifyTLS bool
	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration
	// RetryMax is passed to the underlying HTTP client. The convergence
	// layer never retries; this knob exists for flaky management networks
	// and defaults to zero.
	RetryMax int
	// UserAgent overrides the default agent string.
	UserAgent string
}

// Client is an authenticated handle bound to one array endpoint. The
// negotiated REST version is fixed at login and never re-read mid-session.
type Client struct {
	baseURL     *url.URL
	apiToken    string
	authToken   string
	restVersion string
	userAgent   string
	http        *retryablehttp.Client
}

// NewClient constructs an unconnected client. Login must be called before
// any resource method.
func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, purefaerrors.NewValidationError("endpoint", "array endpoint is required", nil)
	}
	if opts.APIToken == "" {
		return nil, purefaerrors.NewValidationError("api_token", "array API token is required", nil)
	}

	endpoint := opts.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, purefaerrors.NewValidationError("endpoint", fmt.Sprintf("invalid array endpoint %q", opts.Endpoint), err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	rc.HTTPClient.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !opts.VerifyTLS},
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("purefa/%s (%s)", "1.0", uuid.NewString())
	}

	return &Client{
		baseURL:   base,
		apiToken:  opts.APIToken,
		userAgent: userAgent,
		http:      rc,
	}, nil
}

// Login negotiates the REST version and exchanges the API token for a
// session token. The selected version is memoized for the session.
func (c *Client) Login(ctx context.Context) error {
	versions, err := c.apiVersions(ctx)
	if err != nil {
		return err
	}

	selected := ""
	for _, v := range versions {
		if !apiversion.IsValid(v) || apiversion.Compare(v, maxSupportedRESTVersion) > 0 {
			continue
		}
		if selected == "" || apiversion.Compare(v, selected) > 0 {
			selected = v
		}
	}
	if selected == "" {
		return purefaerrors.NewUnsupportedVersionError("this client", "2.0", strings.Join(versions, ","))
	}
	c.restVersion = selected

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url("login"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("api-token", c.apiToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("array login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return purefaerrors.NewRemoteOperationError("login", resp.StatusCode, errorText(body))
	}

	token := resp.Header.Get(authTokenHeader)
	if token == "" {
		return purefaerrors.NewRemoteOperationError("login", resp.StatusCode, "array returned no session token")
	}
	c.authToken = token
	return nil
}

// RESTVersion returns the dotted version string negotiated at login.
func (c *Client) RESTVersion() string {
	return c.restVersion
}

func (c *Client) apiVersions(ctx context.Context) ([]string, error) {
	u := *c.baseURL
	u.Path = "/api/api_version"

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query api versions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, purefaerrors.NewRemoteOperationError("api_version", resp.StatusCode, errorText(body))
	}

	var payload struct {
		Version []string `json:"version"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode api versions: %w", err)
	}
	return payload.Version, nil
}

func (c *Client) url(path string) string {
	u := *c.baseURL
	u.Path = fmt.Sprintf("/api/%s/%s", c.restVersion, strings.TrimPrefix(path, "/"))
	return u.String()
}

// apiError mirrors one entry of the REST error envelope.
type apiError struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

// do issues one request against the versioned API and decodes the response
// envelope into out when out is non-nil. Non-2xx responses surface the
// server error text verbatim inside a RemoteOperationError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if c.authToken == "" {
		return purefaerrors.NewRemoteOperationError(op, 0, "client is not logged in")
	}

	target := c.url(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set(authTokenHeader, c.authToken)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := errorText(payload)
		if isNotFound(resp.StatusCode, message) {
			return &absenceError{op: op, status: resp.StatusCode, message: message}
		}
		return purefaerrors.NewRemoteOperationError(op, resp.StatusCode, message)
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

// errNotFound is an internal absence signal. Resource getters translate it
// into a nil item because a missing resource is a normal outcome, never an
// error.
var errNotFound = errors.New("resource does not exist")

// absenceError carries the server detail behind a not-found response so
// mutating calls can still surface it verbatim.
type absenceError struct {
	op      string
	status  int
	message string
}

func (e *absenceError) Error() string {
	return fmt.Sprintf("%s: %s", e.op, e.message)
}

func (e *absenceError) Is(target error) bool {
	return target == errNotFound
}

func isNotFound(status int, message string) bool {
	if status == http.StatusNotFound {
		return true
	}
	if status != http.StatusBadRequest {
		return false
	}
	lower := strings.ToLower(message)
	return strings.Contains(lower, "does not exist") || strings.Contains(lower, "no such")
}

func errorText(body []byte) string {
	var envelope struct {
		Errors []apiError `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		parts := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			if e.Context != "" {
				parts = append(parts, fmt.Sprintf("%s (%s)", e.Message, e.Context))
			} else {
				parts = append(parts, e.Message)
			}
		}
		return strings.Join(parts, "; ")
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "no error detail supplied"
	}
	return text
}

// items issues one call and decodes the list envelope.
func items[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) ([]T, error) {
	var out struct {
		Items []T `json:"items"`
	}
	if err := c.do(ctx, op, method, path, query, body, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// one issues one call expected to address a single resource and returns
// its item. Absence on a read is a normal outcome and yields a nil item;
// absence on a mutating call is a remote failure like any other.
func one[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) (*T, error) {
	list, err := items[T](ctx, c, op, method, path, query, body)
	if isAbsence(err) {
		if method == http.MethodGet {
			return nil, nil
		}
		var abs *absenceError
		if errors.As(err, &abs) {
			return nil, purefaerrors.NewRemoteOperationError(abs.op, abs.status, abs.message)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func isAbsence(err error) bool {
	return errors.Is(err, errNotFound)
}

// mutate issues a mutating call with no interest in the response items.
// Absence is surfaced as a remote failure, never swallowed.
func (c *Client) mutate(ctx context.Context, op, method, path string, query url.Values, body any) error {
	err := c.do(ctx, op, method, path, query, body, nil)
	if isAbsence(err) {
		var abs *absenceError
		if errors.As(err, &abs) {
			return purefaerrors.NewRemoteOperationError(abs.op, abs.status, abs.message)
		}
	}
	return err
}

// names builds the names= query parameter shared by most resource calls.
func names(vals ...string) url.Values {
	q := url.Values{}
	q.Set("names", strings.Join(vals, ","))
	return q
}

func joinNames(vals []string) string {
	return strings.Join(vals, ",")
}
