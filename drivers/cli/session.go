package cli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"

	"github.com/nanoncore/nano-virtualwire/types"
	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

// maxPromptActions bounds how many in-band prompts one command may answer
const maxPromptActions = 20

// Telnet login chat
var (
	loginPromptRE    = regexp.MustCompile(`[Ll]ogin:|[Uu]sername(\s\(.+\))?:`)
	passwordPromptRE = regexp.MustCompile(`[Pp]assword:`)
)

// DefaultPorts are used when no port is configured for a session type
var DefaultPorts = map[string]int{
	types.SessionTypeSSH:    22,
	types.SessionTypeTelnet: 23,
}

// Session is a live transport connection to a device
type Session interface {
	// SessionType returns the upper case session type (SSH, TELNET)
	SessionType() string
	// Send writes line followed by a newline
	Send(line string) error
	// Expect reads until one of patterns matches and returns the consumed
	// output and the index of the pattern that matched. When several
	// patterns match, the lowest index wins.
	Expect(patterns []*regexp.Regexp, timeout time.Duration) (string, int, error)
	Close() error
}

// DialOptions describes one transport connection attempt
type DialOptions struct {
	SessionType string
	Host        string
	Port        int
	Username    string
	Password    string
	Timeout     time.Duration
}

// Dialer opens sessions
type Dialer interface {
	Dial(ctx context.Context, opts DialOptions) (Session, error)
}

// IsKnownSessionType reports whether t names a supported transport
func IsKnownSessionType(t string) bool {
	_, ok := DefaultPorts[strings.ToUpper(t)]
	return ok
}

// runExpect waits until one of prompts appears, answering prompt actions on
// the way. It returns the accumulated output and the matched prompt index.
func runExpect(ctx context.Context, s Session, actions ActionMap, errs ErrorMap, timeout time.Duration, prompts ...*regexp.Regexp) (string, int, error) {
	patterns := make([]*regexp.Regexp, 0, len(actions)+len(prompts))
	for _, a := range actions {
		patterns = append(patterns, a.Pattern)
	}
	patterns = append(patterns, prompts...)

	var buf strings.Builder
	for i := 0; i <= maxPromptActions; i++ {
		if err := ctx.Err(); err != nil {
			return buf.String(), -1, &types.SessionError{Code: codes.Canceled, Op: "expect", Err: err}
		}

		out, idx, err := s.Expect(patterns, timeout)
		buf.WriteString(out)
		if err != nil {
			return buf.String(), -1, &types.SessionError{Code: codes.DeadlineExceeded, Op: "waiting for prompt", Err: err}
		}

		if idx >= len(actions) {
			return buf.String(), idx - len(actions), nil
		}

		// The device is still waiting on the prompt, so the session can't be reused.
		if label, ok := errs.Match(buf.String()); ok {
			return buf.String(), -1, &types.SessionError{
				Code: codes.FailedPrecondition,
				Op:   "unanswered prompt",
				Err:  &types.CommandError{Label: label, Output: buf.String()},
			}
		}
		if err := actions[idx].Handle(ctx, s); err != nil {
			return buf.String(), -1, &types.SessionError{Code: codes.Unavailable, Op: "prompt action", Err: err}
		}
	}
	return buf.String(), -1, &types.SessionError{
		Code: codes.Aborted,
		Op:   fmt.Sprintf("prompt actions exceeded %d", maxPromptActions),
	}
}

// cleanOutput removes ANSI codes, the command echo and prompt lines
func cleanOutput(output, command string, promptRE *regexp.Regexp) string {
	lines := strings.Split(common.NormalizeNewlines(common.StripANSI(output)), "\n")
	var cleaned []string

	echoSeen := command == ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		// Skip the first occurrence of the command echo
		if !echoSeen && trimmed != "" && strings.Contains(line, command) {
			echoSeen = true
			continue
		}
		if promptRE != nil && trimmed != "" && promptRE.MatchString(trimmed) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// Service sends commands through a leased session that sits in one mode
type Service struct {
	session Session
	mode    *CommandMode
	timeout time.Duration
	log     *logrus.Entry
}

// Mode returns the mode commands are executed in
func (s *Service) Mode() *CommandMode {
	return s.mode
}

// SendCommand sends command, waits for the mode prompt and checks errs
func (s *Service) SendCommand(ctx context.Context, command string, actions ActionMap, errs ErrorMap) (string, error) {
	s.log.Debugf("%s> %s", s.mode.Name, command)

	if err := s.session.Send(command); err != nil {
		return "", &types.SessionError{Code: codes.Unavailable, Op: fmt.Sprintf("send %q", command), Err: err}
	}

	raw, _, err := runExpect(ctx, s.session, actions, errs, s.timeout, s.mode.Prompt)
	output := cleanOutput(raw, command, s.mode.Prompt)
	if err != nil {
		var ce *types.CommandError
		if errors.As(err, &ce) {
			ce.Command = command
			ce.Output = output
		}
		return output, err
	}

	if err := checkOutput(command, output, errs); err != nil {
		s.log.Debugf("command %q failed: %v", command, err)
		return output, err
	}
	return output, nil
}
