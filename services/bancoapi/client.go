package bancoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
)

// Client talks to the external resource backend ("banco API"). It is the
// only thing in the app that knows the wire contract; everything above it
// sees core domain types.
type Client struct {
	baseURL string
	http    *http.Client
	// slowHTTP serves uploads and AI generation: both take long enough
	// that the regular timeout would cut them off, but they still fail
	// after a bounded wait instead of hanging.
	slowHTTP *http.Client
}

// APIError is a business error reported by the backend; its message is
// passed through to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("erro do servidor (%d)", e.StatusCode)
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func NewClient(conf core.BancoAPIConfig) *Client {
	return &Client{
		baseURL:  conf.BaseURL,
		http:     &http.Client{Timeout: conf.Timeout},
		slowHTTP: &http.Client{Timeout: conf.UploadTimeout},
	}
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do runs one JSON round trip. A nil `out` discards the data payload.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshaling request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setBearer(req, token)

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling banco API")
	}
	defer res.Body.Close()

	return decode(res, out)
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// decode reads the response envelope, mapping statuses onto the app error
// taxonomy. A 401 always surfaces as core.ErrSessionExpired so the session
// reset path fires, whatever the endpoint.
func decode(res *http.Response, out interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}

	var env envelope
	if len(raw) > 0 {
		// a broken payload on a success status is still an error
		if err := json.Unmarshal(raw, &env); err != nil && res.StatusCode < 400 {
			return errors.Wrap(err, "decoding response envelope")
		}
	}

	if res.StatusCode == http.StatusUnauthorized {
		return core.ErrSessionExpired
	}
	if res.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "decoding response data")
		}
	}
	return nil
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}
