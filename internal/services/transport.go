package services

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledTransport is an [http.RoundTripper] that waits on a token bucket before each request.
//
// Throttling belongs to the calling layer; the client itself never limits.
type ThrottledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// NewThrottledTransport wraps base (or [http.DefaultTransport]) with a limit of rps requests per second.
func NewThrottledTransport(base http.RoundTripper, rps float64, burst int) *ThrottledTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if burst < 1 {
		burst = 1
	}
	return &ThrottledTransport{
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// RoundTrip implements [http.RoundTripper]. It returns the context error if
// the request is canceled while waiting for a token.
func (t *ThrottledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns a client for the remote API, throttled when rps > 0.
//
// A positive headerTimeout bounds the wait for response headers only, so long
// audio bodies can still stream.
func NewHTTPClient(rps float64, burst int, headerTimeout time.Duration) *http.Client {
	var base http.RoundTripper
	if headerTimeout > 0 {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = headerTimeout
		base = t
	}

	if rps <= 0 {
		return &http.Client{Transport: base}
	}
	return &http.Client{Transport: NewThrottledTransport(base, rps, burst)}
}
