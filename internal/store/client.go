package store

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client 通过 REST 接口访问远端集合存储（users / chats / messages）。
// 所有写操作携带 Prefer: return=representation，远端会把写入后的记录
// 原样返回。
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds a Resty-backed store client for the given endpoint.
// The key is sent both as the apikey header and as a bearer token.
func NewClient(storeURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(storeURL + "/rest/v1").
			SetHeader("apikey", apiKey).
			SetHeader("Authorization", "Bearer "+apiKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		logger: logger,
	}
}

// do issues one request and unmarshals the response body into out
// (when out is non-nil). Network failures map to *TransportError,
// unexpected statuses to *RemoteError.
func (c *Client) do(ctx context.Context, op, method, collection string, params url.Values, body any, out any) error {
	request := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		request.SetQueryParamsFromValues(params)
	}
	if body != nil {
		request.SetBody(body)
	}
	if out != nil {
		// 远端始终返回 JSON，但不保证 Content-Type 头。
		request.SetResult(out).ForceContentType("application/json")
	}
	if method != http.MethodGet {
		request.SetHeader("Prefer", "return=representation")
	}

	resp, err := request.Execute(method, "/"+collection)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.IsError() {
		c.logger.Warn("store request rejected",
			zap.String("op", op),
			zap.String("collection", collection),
			zap.Int("status", resp.StatusCode()))
		return &RemoteError{Op: op, Status: resp.StatusCode()}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, collection string, params url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, collection, params, nil, out)
}

func (c *Client) post(ctx context.Context, op, collection string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, collection, nil, body, out)
}

func (c *Client) patch(ctx context.Context, op, collection string, params url.Values, body, out any) error {
	return c.do(ctx, op, http.MethodPatch, collection, params, body, out)
}

func (c *Client) delete(ctx context.Context, op, collection string, params url.Values) error {
	return c.do(ctx, op, http.MethodDelete, collection, params, nil, nil)
}

// eq renders a filter-by-equality query parameter.
func eq(value string) string { return "eq." + value }
