// Package httpserver constructs the process's http.Server so timeout policy
// lives in one place instead of in main.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the given address and handler. Header reads are
// bounded to shed slow-loris connections; per-request deadlines come from the
// router's timeout middleware rather than a flat server-wide write timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
