// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"testing"
	"time"
)

// Timeout bounds tests that touch the host: process queries, sockets.
const Timeout = 10 * time.Second

// NewTestContext returns a context cancelled after Timeout or when t ends.
func NewTestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	t.Cleanup(cancel)
	return ctx
}
