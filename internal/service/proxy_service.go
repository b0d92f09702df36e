package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "dspgateway/internal/errors"
)

// dspQueryPath is the fixed upstream path. The full upstream URL is never
// derived from request input, which blocks SSRF via client-supplied hosts or
// paths.
const dspQueryPath = "/dsp/query"

// ProxyService forwards authenticated queries to the internal DSP upstream
// and translates its failures into the ProxyError contract. Each call is a
// single best-effort attempt: no retries, no circuit breaking.
type ProxyService interface {
	Forward(ctx context.Context, query string, extras map[string]interface{}, subject string) (interface{}, error)
}

type proxyService struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// NewProxyService creates a proxy bound to the given upstream base URL and
// per-call timeout.
func NewProxyService(baseURL string, timeout time.Duration) ProxyService {
	return &proxyService{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Forward POSTs the query to the DSP upstream and returns its parsed body.
// Only the allow-listed fields query and extras reach the upstream.
func (s *proxyService) Forward(ctx context.Context, query string, extras map[string]interface{}, subject string) (interface{}, error) {
	payload := map[string]interface{}{"query": query}
	if extras != nil {
		payload["extras"] = extras
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream payload: %w", err)
	}

	// The deadline is detached from the incoming request context: a client
	// disconnect must not abort an in-flight upstream call.
	callCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, s.baseURL+dspQueryPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("X-Forwarded-User", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &apperrors.ProxyError{
				Code:       apperrors.CodeUpstreamTimeout,
				Detail:     fmt.Sprintf("DSP upstream did not answer within %s", s.timeout),
				StatusCode: http.StatusGatewayTimeout,
			}
		}
		log.Printf("dsp proxy: transport failure: %v", err)
		return nil, &apperrors.ProxyError{
			Code:       apperrors.CodeUpstreamError,
			Detail:     err.Error(),
			StatusCode: http.StatusBadGateway,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ProxyError{
			Code:       apperrors.CodeUpstreamError,
			Detail:     fmt.Sprintf("read upstream response: %v", err),
			StatusCode: http.StatusBadGateway,
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Upstream 400 passes through as 400; every other non-2xx status is
		// flattened to 502. The flattening is contractual.
		localStatus := http.StatusBadGateway
		if resp.StatusCode == http.StatusBadRequest {
			localStatus = http.StatusBadRequest
		}
		return nil, &apperrors.ProxyError{
			Code: apperrors.CodeUpstreamBadResponse,
			Detail: apperrors.UpstreamDetail{
				Status: resp.StatusCode,
				Body:   parseOrRaw(raw),
			},
			StatusCode: localStatus,
		}
	}

	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// A 2xx body that is not JSON is still a success.
		return map[string]interface{}{"data": string(raw)}, nil
	}
	return parsed, nil
}

// parseOrRaw decodes body as JSON, falling back to the raw text.
func parseOrRaw(raw []byte) interface{} {
	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	return parsed
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
