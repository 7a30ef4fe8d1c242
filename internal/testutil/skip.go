// Package testutil holds helpers shared by package tests.
package testutil

import (
	"net"
	"os"
	"testing"
)

// SkipIfNoNetwork skips the test if VISITWATCH_TEST_SKIP_NETWORK is set or
// the loopback interface refuses a listener. Use it for tests that bind real
// TCP sockets, which sandboxed environments may not allow.
func SkipIfNoNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("VISITWATCH_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: VISITWATCH_TEST_SKIP_NETWORK is set")
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping network test: loopback unavailable: %v", err)
	}
	_ = ln.Close()
}
