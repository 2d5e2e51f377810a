package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultHTTPTimeout = 30 * time.Second

var (
	// Shared client so concurrent steps reuse one connection pool.
	sharedHTTPClient     *fasthttp.Client
	sharedHTTPClientOnce sync.Once
)

func httpClient() *fasthttp.Client {
	sharedHTTPClientOnce.Do(func() {
		sharedHTTPClient = &fasthttp.Client{
			MaxConnsPerHost:     256,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         defaultHTTPTimeout,
			WriteTimeout:        defaultHTTPTimeout,
		}
	})
	return sharedHTTPClient
}

// HTTPCapability performs HTTP requests with fasthttp. Action names map to
// request methods (get, post, put, delete, patch); the generic "request"
// action takes the method from args.
type HTTPCapability struct {
	client *fasthttp.Client
}

// NewHTTPCapability creates the http capability over the shared client.
func NewHTTPCapability() *HTTPCapability {
	return &HTTPCapability{client: httpClient()}
}

// Name implements Capability.
func (c *HTTPCapability) Name() string {
	return "http"
}

// Invoke performs the request described by args: "url" (required), "headers"
// (map), "body" (string or JSON-encodable value), "timeout_ms". The result
// holds "status", "headers", and "body" (decoded from JSON when possible).
// Non-2xx statuses are reported as errors so delegated steps fail visibly.
func (c *HTTPCapability) Invoke(ctx context.Context, action string, args map[string]any) (map[string]any, error) {
	method := strings.ToUpper(action)
	if action == "request" {
		m, _ := args["method"].(string)
		if m == "" {
			return nil, fmt.Errorf("http request action requires a method argument")
		}
		method = strings.ToUpper(m)
	}
	switch method {
	case fasthttp.MethodGet, fasthttp.MethodPost, fasthttp.MethodPut,
		fasthttp.MethodDelete, fasthttp.MethodPatch, fasthttp.MethodHead:
	default:
		return nil, fmt.Errorf("http capability has no action %q", action)
	}

	url, _ := args["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http %s requires a url argument", action)
	}

	timeout := defaultHTTPTimeout
	if ms, ok := toInt(args["timeout_ms"]); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(url)

	if headers, ok := args["headers"].(map[string]any); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprintf("%v", v))
		}
	}

	if body, ok := args["body"]; ok && body != nil {
		switch b := body.(type) {
		case string:
			req.SetBodyString(b)
		default:
			encoded, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("encode request body: %w", err)
			}
			req.SetBody(encoded)
			if len(req.Header.ContentType()) == 0 {
				req.Header.SetContentType("application/json")
			}
		}
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		if err == fasthttp.ErrTimeout {
			return nil, fmt.Errorf("http %s %s timed out after %s", method, url, timeout)
		}
		return nil, fmt.Errorf("http %s %s: %w", method, url, err)
	}

	status := resp.StatusCode()
	headers := make(map[string]string)
	resp.Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if _, exists := headers[k]; !exists {
			headers[k] = string(value)
		}
	})

	// resp.Body() references an internal buffer; copy before release.
	bodyBytes := make([]byte, len(resp.Body()))
	copy(bodyBytes, resp.Body())

	result := map[string]any{
		"status":  status,
		"headers": headers,
		"body":    decodeBody(bodyBytes),
	}
	if status < 200 || status >= 300 {
		return result, fmt.Errorf("http %s %s returned status %d", method, url, status)
	}
	return result, nil
}

// decodeBody returns the parsed JSON value when the body is JSON, otherwise
// the raw string.
func decodeBody(body []byte) any {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			return decoded
		}
	}
	return string(body)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
