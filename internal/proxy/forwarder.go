// Package proxy implements the reverse-proxy dispatcher: it forwards
// admitted requests to upstream services and translates transport failures
// into gateway-level errors. Upstream application errors (4xx/5xx) are not
// translated; they pass through unchanged.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"api-gateway/internal/logger"
	"api-gateway/internal/model"
)

// identityHeader carries the authenticated account ID to internal services.
const identityHeader = "X-User-ID"

// hop-only headers, never relayed in either direction.
var excludedHeaders = []string{"Content-Encoding", "Transfer-Encoding", "Connection"}

// Request describes one upstream call.
type Request struct {
	Method   string
	BaseURL  string
	SubPath  string
	RawQuery string
	Body     io.Reader
	Header   http.Header
	Identity model.Identity
}

// Forwarder performs upstream calls with a bounded timeout.
type Forwarder struct {
	client *http.Client
	logger *logger.Logger
}

func NewForwarder(timeout time.Duration, logger *logger.Logger) *Forwarder {
	return &Forwarder{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Forward builds the upstream URL from base and sub-path, injects the
// identity header when the caller is authenticated, and performs the call.
// Transport failures come back as model.ErrUpstreamTimeout or
// model.ErrUpstreamUnreachable; any HTTP response, including 4xx/5xx, is
// returned as-is for relaying.
func (f *Forwarder) Forward(ctx context.Context, req Request) (*http.Response, error) {
	target, err := buildURL(req.BaseURL, req.SubPath, req.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream url: %w", err)
	}

	upstream, err := http.NewRequestWithContext(ctx, req.Method, target, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	copyRequestHeaders(upstream.Header, req.Header)
	if req.Identity.Authenticated() {
		upstream.Header.Set(identityHeader, strconv.FormatInt(req.Identity.AccountID, 10))
	}

	resp, err := f.client.Do(upstream)
	if err != nil {
		return nil, f.classify(req.Method, target, err)
	}

	for _, h := range excludedHeaders {
		resp.Header.Del(h)
	}

	return resp, nil
}

// Relay copies an upstream response to the gateway's client.
func Relay(w http.ResponseWriter, resp *http.Response) error {
	defer resp.Body.Close()

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	_, err := io.Copy(w, resp.Body)
	return err
}

// classify maps transport errors to the gateway taxonomy. The timeout check
// covers both the client deadline and a context deadline set upstream of the
// forwarder.
func (f *Forwarder) classify(method, target string, err error) error {
	var ue *url.Error
	timedOut := errors.Is(err, context.DeadlineExceeded)
	if errors.As(err, &ue) && ue.Timeout() {
		timedOut = true
	}

	if timedOut {
		f.logger.Error("proxy: upstream call timed out",
			"method", method,
			"target", target)
		return fmt.Errorf("%w: %s %s", model.ErrUpstreamTimeout, method, target)
	}

	f.logger.Error("proxy: upstream unreachable",
		"method", method,
		"target", target,
		"error", err.Error())
	return fmt.Errorf("%w: %s %s", model.ErrUpstreamUnreachable, method, target)
}

func buildURL(base, subPath, rawQuery string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(subPath, "/")
	u.RawQuery = rawQuery

	return u.String(), nil
}

// copyRequestHeaders forwards client headers except hop-only ones and the
// bearer credential; identity travels on X-User-ID instead. Accept-Encoding
// is left to the transport: forwarding the caller's value would disable the
// transport's transparent decompression and hand the client compressed bytes
// after the Content-Encoding header was stripped.
func copyRequestHeaders(dst, src http.Header) {
	for k, vv := range src {
		if isExcludedRequestHeader(k) {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func isExcludedRequestHeader(key string) bool {
	switch http.CanonicalHeaderKey(key) {
	case "Authorization", "Accept-Encoding", "Connection", "Transfer-Encoding", "Host":
		return true
	}
	return false
}
