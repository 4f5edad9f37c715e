package mock

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
	"github.com/nanoncore/nano-virtualwire/types"
)

// ErrSessionClosed is returned by a closed mock session
var ErrSessionClosed = errors.New("mock session closed")

// session states
const (
	stateLogin    = "login"
	statePassword = "password"
	stateShell    = "shell"
	stateCLIUser  = "cli-username"
	stateCLIPass  = "cli-password"
	stateCLI      = "cli"
)

// Dialer opens sessions to a simulated Device
type Dialer struct {
	Device *Device
}

// NewDialer creates a dialer for dev
func NewDialer(dev *Device) *Dialer {
	return &Dialer{Device: dev}
}

// Dial opens a session. SSH sessions authenticate at dial time; Telnet
// sessions go through a login chat.
func (d *Dialer) Dial(ctx context.Context, opts cli.DialOptions) (cli.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dev := d.Device
	dev.mu.Lock()
	defer dev.mu.Unlock()

	dev.dials++
	if dev.dialErr != nil {
		return nil, dev.dialErr
	}

	s := &Session{dev: dev, sessionType: strings.ToUpper(opts.SessionType)}
	switch s.sessionType {
	case types.SessionTypeSSH:
		if !dev.authenticate(opts.Username, opts.Password) {
			return nil, fmt.Errorf("ssh: handshake failed: unable to authenticate")
		}
		s.land()
	case types.SessionTypeTelnet:
		s.state = stateLogin
		s.buf.WriteString(dev.SwitchName + " login: ")
	default:
		return nil, fmt.Errorf("Session type %s is not defined", opts.SessionType)
	}
	return s, nil
}

// authenticate accepts anything unless Username is set. Caller holds mu.
func (dev *Device) authenticate(username, password string) bool {
	return dev.Username == "" || (dev.Username == username && dev.Password == password)
}

// Session is one simulated terminal
type Session struct {
	dev         *Device
	sessionType string
	state       string
	user        string
	buf         strings.Builder
	closed      bool
}

// land writes the banner and the first prompt. Caller holds dev.mu.
func (s *Session) land() {
	s.buf.WriteString(s.dev.Banner + "\r\n")
	if s.dev.InitialMode == stateCLI {
		s.state = stateCLI
		s.buf.WriteString(s.dev.cliPrompt())
		return
	}
	s.state = stateShell
	s.buf.WriteString(s.dev.shellPrompt())
}

// SessionType returns SSH or TELNET
func (s *Session) SessionType() string {
	return s.sessionType
}

// Send feeds one line to the simulated device
func (s *Session) Send(line string) error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	line = strings.TrimRight(line, "\r\n")

	switch s.state {
	case stateLogin:
		s.user = line
		s.buf.WriteString(line + "\r\nPassword: ")
		s.state = statePassword
	case statePassword:
		s.buf.WriteString("\r\n")
		if !s.dev.authenticate(s.user, line) {
			s.buf.WriteString("Login incorrect\r\n" + s.dev.SwitchName + " login: ")
			s.state = stateLogin
			return nil
		}
		s.land()
	case stateShell:
		s.buf.WriteString(line + "\r\n")
		switch strings.TrimSpace(line) {
		case "":
		case "cli":
			if s.dev.CLILogin {
				s.buf.WriteString("Username (network-admin): ")
				s.state = stateCLIUser
				return nil
			}
			s.enterCLI()
			return nil
		case "exit":
			s.closed = true
			s.dev.closed++
			return nil
		default:
			s.buf.WriteString(fmt.Sprintf("-bash: %s: command not found\r\n", strings.Fields(line)[0]))
		}
		s.buf.WriteString(s.dev.shellPrompt())
	case stateCLIUser:
		s.user = line
		s.buf.WriteString(line + "\r\nPassword: ")
		s.state = stateCLIPass
	case stateCLIPass:
		s.buf.WriteString("\r\n")
		if !s.dev.authenticate(s.user, line) {
			s.buf.WriteString("Error: authentication failed\r\n" + s.dev.shellPrompt())
			s.state = stateShell
			return nil
		}
		s.enterCLI()
	case stateCLI:
		s.buf.WriteString(line + "\r\n")
		if strings.TrimSpace(line) == "exit" {
			s.state = stateShell
			s.buf.WriteString(s.dev.shellPrompt())
			return nil
		}
		if s.dev.hangs(line) {
			s.dev.cmdHistory = append(s.dev.cmdHistory, line)
			return nil
		}
		if out := s.dev.execCLI(line); out != "" {
			s.buf.WriteString(strings.ReplaceAll(out, "\n", "\r\n") + "\r\n")
		}
		s.buf.WriteString(s.dev.cliPrompt())
	}
	return nil
}

// enterCLI prints the CLI banner and prompt. Caller holds dev.mu.
func (s *Session) enterCLI() {
	s.state = stateCLI
	s.buf.WriteString(s.dev.Motd + "\r\n" + s.dev.cliPrompt())
}

// Expect returns the whole pending output once any pattern matches it.
// The device answers synchronously, so no match means a timeout.
func (s *Session) Expect(patterns []*regexp.Regexp, timeout time.Duration) (string, int, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.closed {
		return "", -1, ErrSessionClosed
	}
	pending := s.buf.String()
	for i, re := range patterns {
		if re.MatchString(pending) {
			s.buf.Reset()
			return pending, i, nil
		}
	}
	return "", -1, fmt.Errorf("expect: timer expired after %v", timeout)
}

// Close ends the session
func (s *Session) Close() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.dev.closed++
	}
	return nil
}
