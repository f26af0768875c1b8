package jira

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newHTTPTransport returns a pooled transport with optional TLS skipping.
func newHTTPTransport(skipInsecure bool) *http.Transport {
	// pagination walks many pages against one host
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: skipInsecure, // NOTE: intended for dev only
		},

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// newHTTPClient builds an http.Client with transport and request timeout.
func newHTTPClient(timeout time.Duration, skipInsecure bool) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newHTTPTransport(skipInsecure),
	}
}
