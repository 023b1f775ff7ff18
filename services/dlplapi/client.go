// Package dlplapi implements the HTTP client for the external DLPL API,
// the service owning all business logic and persistence behind both the
// public enrollment wizard and the admin console.
//
// Every call is a single attempt with the client library's default timeout
// semantics: no retry, no backoff. Non-2xx responses come back as *APIError
// and transport failures as *ConnectionError, both handled at the call site.
package dlplapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/NercinoN21/dlpl-frontend/core"
)

type ClientConfig struct {
	// BaseURL is the DLPL API base URL, without trailing slash.
	BaseURL string

	// HTTPClient overrides the default http.Client; used in tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

// request issues one HTTP call and decodes a 2xx JSON body into out (ignored
// when out is nil or the body is empty). creds, when non-nil and non-empty,
// attaches the bearer token and the login cookies.
func (c *Client) request(
	ctx context.Context,
	method, path string,
	params url.Values,
	body io.Reader,
	contentType string,
	creds *core.Credentials,
	out interface{},
) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return errors.Wrapf(err, "building %s %s request", method, path)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if creds != nil && !creds.Empty() {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
		for name, value := range creds.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: serverMessage(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

// decodeResponse applies the same status/body handling as request to a raw
// *http.Response, for calls that need access to response headers or cookies.
func decodeResponse(resp *http.Response, out interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, creds *core.Credentials, out interface{}) error {
	return c.request(ctx, http.MethodGet, path, params, nil, "", creds, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, creds *core.Credentials, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, payload, creds, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, creds *core.Credentials, out interface{}) error {
	return c.request(
		ctx, http.MethodPost, path, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded",
		creds, out,
	)
}

func (c *Client) putForm(ctx context.Context, path string, form url.Values, creds *core.Credentials) error {
	return c.request(
		ctx, http.MethodPut, path, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded",
		creds, nil,
	)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload interface{}, creds *core.Credentials, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "encoding %s %s payload", method, path)
	}
	return c.request(ctx, method, path, nil, bytes.NewReader(data), "application/json", creds, out)
}
