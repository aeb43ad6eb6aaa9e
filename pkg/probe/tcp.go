package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPChecker probes a node with a bare TCP dial.
type TCPChecker struct {
	address string
	timeout time.Duration
}

// NewTCPChecker creates a TCP reachability checker.
func NewTCPChecker(address string, timeout time.Duration) *TCPChecker {
	return &TCPChecker{address: address, timeout: timeout}
}

// Check performs the TCP probe.
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.address)
	if err != nil {
		return Result{
			Message:   fmt.Sprintf("connection failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer conn.Close()

	return Result{
		Reachable: true,
		Message:   fmt.Sprintf("TCP connection to %s successful", t.address),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}
