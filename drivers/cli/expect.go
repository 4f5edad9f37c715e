package cli

import (
	"fmt"
	"regexp"
	"time"

	expect "github.com/google/goexpect"
)

// ExpectSession wraps google/goexpect as a Session
type ExpectSession struct {
	expecter    *expect.GExpect
	sessionType string
	closer      func() error
}

// ExpectSessionConfig holds the spawned expecter and the transport closer
type ExpectSessionConfig struct {
	Expecter    *expect.GExpect
	SessionType string
	// Closer releases the underlying transport after the expecter
	Closer func() error
}

// NewExpectSession wraps an already spawned expecter
func NewExpectSession(cfg ExpectSessionConfig) (*ExpectSession, error) {
	if cfg.Expecter == nil {
		return nil, fmt.Errorf("expecter is required")
	}
	return &ExpectSession{
		expecter:    cfg.Expecter,
		sessionType: cfg.SessionType,
		closer:      cfg.Closer,
	}, nil
}

// SessionType returns the transport name
func (s *ExpectSession) SessionType() string {
	return s.sessionType
}

// Send writes a line to the device
func (s *ExpectSession) Send(line string) error {
	if s.expecter == nil {
		return fmt.Errorf("expect session not initialized")
	}
	return s.expecter.Send(line + "\n")
}

// Expect waits for the first of patterns. Patterns are tried in order on
// every read, so earlier entries shadow later ones.
func (s *ExpectSession) Expect(patterns []*regexp.Regexp, timeout time.Duration) (string, int, error) {
	if s.expecter == nil {
		return "", -1, fmt.Errorf("expect session not initialized")
	}

	cases := make([]expect.Caser, 0, len(patterns))
	for _, re := range patterns {
		cases = append(cases, &expect.Case{R: re, T: expect.OK()})
	}

	output, _, idx, err := s.expecter.ExpectSwitchCase(cases, timeout)
	if err != nil {
		return output, -1, fmt.Errorf("timeout waiting for %d patterns: %w", len(patterns), err)
	}
	return output, idx, nil
}

// Close closes the expecter and the transport
func (s *ExpectSession) Close() error {
	var err error
	if s.expecter != nil {
		err = s.expecter.Close()
		s.expecter = nil
	}
	if s.closer != nil {
		if cerr := s.closer(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
