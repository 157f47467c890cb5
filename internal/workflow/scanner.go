package workflow

import (
	"context"
	"sync"
)

// ScanHandler consumes one raw scan string. A nil return means the
// code was accepted and the flow moved on; an error leaves the flow
// where it was so the operator can rescan.
type ScanHandler func(ctx context.Context, raw string) error

// Scanner feeds raw barcode strings from the scanning hardware into a
// handler, one at a time. Once a code has been accepted the gate
// closes: rapid repeated frames of the same physical code produce no
// second decode or dispatch until Reset reopens the gate.
type Scanner struct {
	mu       sync.Mutex
	accepted bool
	handle   ScanHandler
}

// NewScanner creates an open scanner delivering into handle.
func NewScanner(handle ScanHandler) *Scanner {
	return &Scanner{handle: handle}
}

// Deliver processes one scan event. Returns ErrScanIgnored when the
// gate is already closed. Delivery is serialized; there is never more
// than one handler call in flight.
func (s *Scanner) Deliver(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accepted {
		return ErrScanIgnored
	}

	if err := s.handle(ctx, raw); err != nil {
		// Rejected scans leave the gate open for another try.
		return err
	}

	s.accepted = true
	return nil
}

// Reset reopens the gate, typically when the consuming screen closes
// and reopens the scanner.
func (s *Scanner) Reset() {
	s.mu.Lock()
	s.accepted = false
	s.mu.Unlock()
}

// Closed reports whether a code has been accepted since the last
// Reset.
func (s *Scanner) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}
