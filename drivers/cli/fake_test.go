package cli

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

var errExpectTimeout = errors.New("expect: timer expired")

// fakeSession buffers whatever respond returns for a sent line. Expect
// consumes the whole buffer once any pattern matches it.
type fakeSession struct {
	mu          sync.Mutex
	sessionType string
	buf         strings.Builder
	respond     func(line string) string
	sent        []string
	closed      int
}

func newFakeSession(sessionType, banner string, respond func(string) string) *fakeSession {
	s := &fakeSession{sessionType: sessionType, respond: respond}
	s.buf.WriteString(banner)
	return s
}

func (s *fakeSession) SessionType() string { return s.sessionType }

func (s *fakeSession) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed > 0 {
		return errors.New("session closed")
	}
	s.sent = append(s.sent, line)
	if s.respond != nil {
		s.buf.WriteString(s.respond(line))
	}
	return nil
}

func (s *fakeSession) Expect(patterns []*regexp.Regexp, _ time.Duration) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buf.String()
	for i, p := range patterns {
		if p.MatchString(out) {
			s.buf.Reset()
			return out, i, nil
		}
	}
	return out, -1, errExpectTimeout
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSession) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// fakeSwitch is a three level CLI: shell ($), exec (>) and config (#)
type fakeSwitch struct {
	mode    string
	user    string
	pass    string
	outputs map[string]string
	hang    map[string]bool
	// raw replies win over mode handling
	raw map[string]string
}

func newFakeSwitch() *fakeSwitch {
	return &fakeSwitch{
		mode:    "shell",
		outputs: map[string]string{},
		hang:    map[string]bool{},
		raw:     map[string]string{},
	}
}

func (d *fakeSwitch) prompt() string {
	switch d.mode {
	case "exec":
		return "sw> "
	case "config":
		return "sw(config)# "
	}
	return "admin@sw:~$ "
}

func (d *fakeSwitch) respond(line string) string {
	echo := line + "\r\n"
	if out, ok := d.raw[line]; ok {
		return echo + out
	}
	switch {
	case d.mode == "login":
		d.user = line
		d.mode = "password"
		return echo + "Password: "
	case d.mode == "password":
		d.pass = line
		d.mode = "shell"
		return "\r\n" + d.prompt()
	case d.mode == "shell" && line == "cli":
		d.mode = "exec"
	case d.mode == "exec" && line == "configure":
		d.mode = "config"
	case d.mode == "exec" && line == "exit":
		d.mode = "shell"
	case d.mode == "config" && line == "end":
		d.mode = "exec"
	case d.hang[line]:
		return echo
	default:
		if out, ok := d.outputs[line]; ok {
			return echo + out + "\r\n" + d.prompt()
		}
		if d.mode == "shell" {
			return echo + "bash: " + line + ": command not found\r\n" + d.prompt()
		}
		return echo + "Error: unknown command " + line + "\r\n" + d.prompt()
	}
	return echo + d.prompt()
}

func testGraph(t *testing.T) *ModeGraph {
	t.Helper()
	g := NewModeGraph()
	modes := []struct {
		parent string
		mode   *CommandMode
	}{
		{"", &CommandMode{Name: "shell", Prompt: regexp.MustCompile(`\$\s*$`)}},
		{"shell", &CommandMode{Name: "exec", Prompt: regexp.MustCompile(`>\s*$`), EnterCommand: "cli", ExitCommand: "exit"}},
		{"exec", &CommandMode{Name: "config", Prompt: regexp.MustCompile(`\(config\)#\s*$`), EnterCommand: "configure", ExitCommand: "end"}},
	}
	for _, m := range modes {
		if err := g.Add(m.parent, m.mode); err != nil {
			t.Fatalf("Add(%s): %v", m.mode.Name, err)
		}
	}
	return g
}

// fakeDialer hands out sessions backed by a fresh fakeSwitch per dial
type fakeDialer struct {
	mu       sync.Mutex
	failures map[string]error
	banner   func(sessionType string) string
	setup    func(d *fakeSwitch)
	sessions []*fakeSession
	switches []*fakeSwitch
	opts     []DialOptions
}

func (f *fakeDialer) Dial(_ context.Context, opts DialOptions) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if err := f.failures[opts.SessionType]; err != nil {
		return nil, err
	}
	dev := newFakeSwitch()
	banner := "Welcome\r\n" + dev.prompt()
	if opts.SessionType == "TELNET" {
		dev.mode = "login"
		banner = "sw login: "
	}
	if f.setup != nil {
		f.setup(dev)
	}
	if f.banner != nil {
		banner = f.banner(opts.SessionType)
	}
	s := newFakeSession(opts.SessionType, banner, dev.respond)
	f.sessions = append(f.sessions, s)
	f.switches = append(f.switches, dev)
	return s, nil
}

func (f *fakeDialer) Dials() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeDialer) Session(i int) *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[i]
}

// recordingSender captures commands without a session
type recordingSender struct {
	commands []string
	output   string
	err      error
}

func (r *recordingSender) SendCommand(_ context.Context, command string, _ ActionMap, errs ErrorMap) (string, error) {
	r.commands = append(r.commands, command)
	if r.err != nil {
		return "", r.err
	}
	if err := checkOutput(command, r.output, errs); err != nil {
		return r.output, err
	}
	return r.output, nil
}

var _ CommandSender = (*recordingSender)(nil)
