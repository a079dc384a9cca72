package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/choicemate/internal/errors"
)

// maxResponseBody caps how much of a response is read
const maxResponseBody = 4 << 20

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

// do sends one request. There is no retry: the first failure is returned.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if c.baseURL == "" {
		return apierrors.NewNotConfiguredError(endpoint)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		if isTimeout(ctx, err) {
			return apierrors.NewTimeoutError(endpoint, err)
		}
		return apierrors.NewNetworkError(strings.ToLower(method), endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if isTimeout(ctx, err) {
			return apierrors.NewTimeoutError(endpoint, err)
		}
		return apierrors.NewNetworkError("read response", endpoint, err)
	}

	c.logger.Debug("request done",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(raw)
		return apierrors.NewAPIErrorWithPayload(resp.StatusCode, endpoint, ErrorMessage(text), parsePayload(text))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w from %s: %v", apierrors.ErrInvalidResponse, endpoint, err)
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parsePayload decodes an error body. Bodies that are not JSON are kept as
// text; an empty body is nil.
func parsePayload(text string) any {
	if text == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

// ErrorMessage extracts a human-readable message from an error body
func ErrorMessage(text string) string {
	if strings.TrimSpace(text) == "" || !gjson.Valid(text) {
		if text == "" {
			return defaultErrorMessage
		}
		return text
	}

	res := gjson.Parse(text)
	switch res.Type {
	case gjson.Null, gjson.False:
		return defaultErrorMessage
	case gjson.String:
		if res.String() == "" {
			return defaultErrorMessage
		}
		return res.String()
	case gjson.Number:
		if res.Float() == 0 {
			return defaultErrorMessage
		}
		return res.Raw
	}

	if detail := res.Get(PathDetail); detail.Type == gjson.String {
		return detail.String()
	} else if detail.IsArray() {
		var parts []string
		detail.ForEach(func(_, item gjson.Result) bool {
			if msg := item.Get(PathDetailMsg); msg.Type == gjson.String && msg.String() != "" {
				parts = append(parts, msg.String())
			} else {
				parts = append(parts, compact(item.Raw))
			}
			return true
		})
		return strings.Join(parts, "; ")
	}

	if e := res.Get(PathError); e.Type == gjson.String {
		return e.String()
	}

	return compact(res.Raw)
}

func compact(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}
