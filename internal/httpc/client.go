// Package httpc holds the outbound HTTP plumbing shared by the robot
// bridge and service clients. Every client gets connect and overall
// timeouts so a dead endpoint cannot wedge a conversation turn.
package httpc

import (
	"net"
	"net/http"
	"time"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client is the shared client for callers without a latency budget of
// their own. Prefer it over http.DefaultClient, which never times out.
var Client = NewClient(DefaultTimeout)

// NewClient creates an HTTP client with the given overall timeout and
// the shared transport defaults.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       DefaultIdleConnTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
