package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers (service credentials).
type HeaderProvider func() map[string]string

// RemoteVerifier asks an external identity service to verify tokens:
//
//	POST {baseURL}/verify {"token": "..."} -> {"uid": "...", "displayName": "..."}
type RemoteVerifier struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	timeout time.Duration
}

type Option func(*RemoteVerifier)

func WithTimeout(d time.Duration) Option {
	return func(v *RemoteVerifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(v *RemoteVerifier) { v.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(v *RemoteVerifier) { v.headers = h }
}

func NewRemoteVerifier(baseURL string, opts ...Option) *RemoteVerifier {
	v := &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

func (v *RemoteVerifier) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	token = trimBearer(token)
	if token == "" {
		return domain.Identity{}, ErrUnauthenticated
	}
	var resp verifyResponse
	if err := v.doJSON(ctx, fasthttp.MethodPost, "/verify", verifyRequest{Token: token}, &resp); err != nil {
		return domain.Identity{}, err
	}
	if strings.TrimSpace(resp.UID) == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty uid", ErrUnauthenticated)
	}
	if !domain.ValidKey(resp.UID) {
		return domain.Identity{}, fmt.Errorf("%w: malformed uid %q", ErrUnauthenticated, resp.UID)
	}
	return domain.Identity{UID: resp.UID, Name: strings.TrimSpace(resp.DisplayName)}, nil
}

func (v *RemoteVerifier) doJSON(ctx context.Context, method, path string, in any, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(v.baseURL + path)
	req.Header.SetContentType("application/json")
	if v.headers != nil {
		for k, val := range v.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(val) != "" {
				req.Header.Set(k, val)
			}
		}
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	if err := v.http.DoDeadline(req, resp, v.deadline(ctx)); err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return ErrUnauthenticated
	case status < 200 || status >= 300:
		return fmt.Errorf("identity service error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (v *RemoteVerifier) deadline(ctx context.Context) time.Time {
	own := time.Now().Add(v.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(own) {
		return dl
	}
	return own
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
