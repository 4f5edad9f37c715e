package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	expect "github.com/google/goexpect"
	"github.com/ziutek/telnet"
	"golang.org/x/crypto/ssh"
)

// TransportDialer opens SSH and Telnet sessions driven by goexpect
type TransportDialer struct {
	// CheckDuration is the goexpect polling interval
	CheckDuration time.Duration
}

// NewTransportDialer returns a dialer with default polling
func NewTransportDialer() *TransportDialer {
	return &TransportDialer{CheckDuration: 100 * time.Millisecond}
}

// Dial connects using opts.SessionType
func (d *TransportDialer) Dial(ctx context.Context, opts DialOptions) (Session, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Port == 0 {
		opts.Port = DefaultPorts[strings.ToUpper(opts.SessionType)]
	}

	switch strings.ToUpper(opts.SessionType) {
	case "SSH":
		return d.dialSSH(ctx, opts)
	case "TELNET":
		return d.dialTelnet(ctx, opts)
	default:
		return nil, fmt.Errorf("Session type %s is not defined", opts.SessionType)
	}
}

func (d *TransportDialer) options() []expect.Option {
	return []expect.Option{
		expect.Verbose(false),
		expect.CheckDuration(d.CheckDuration),
	}
}

func (d *TransportDialer) dialSSH(ctx context.Context, opts DialOptions) (Session, error) {
	// Some switches only offer keyboard-interactive authentication
	keyboardInteractive := ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = opts.Password
		}
		return answers, nil
	})

	sshConfig := &ssh.ClientConfig{
		User: opts.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(opts.Password),
			keyboardInteractive,
		},
		Timeout:         opts.Timeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // lab switches rarely have managed host keys
	}

	target := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))

	dialer := net.Dialer{Timeout: opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SSH: %w", err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, target, sshConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to dial SSH: %w", err)
	}
	client := ssh.NewClient(c, chans, reqs)

	exp, _, err := expect.SpawnSSH(client, opts.Timeout, d.options()...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to spawn SSH expect session: %w", err)
	}

	return NewExpectSession(ExpectSessionConfig{
		Expecter:    exp,
		SessionType: "SSH",
		Closer:      client.Close,
	})
}

func (d *TransportDialer) dialTelnet(ctx context.Context, opts DialOptions) (Session, error) {
	target := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))

	timeout := opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	conn, err := telnet.DialTimeout("tcp", target, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial Telnet: %w", err)
	}
	conn.SetUnixWriteMode(true)

	done := make(chan struct{})
	var once sync.Once
	closeConn := func() error {
		var err error
		once.Do(func() {
			err = conn.Close()
			close(done)
		})
		return err
	}

	exp, _, err := expect.SpawnGeneric(&expect.GenOptions{
		In:    conn,
		Out:   conn,
		Wait:  func() error { <-done; return nil },
		Close: closeConn,
		Check: func() bool { return true },
	}, opts.Timeout, d.options()...)
	if err != nil {
		closeConn()
		return nil, fmt.Errorf("failed to spawn Telnet expect session: %w", err)
	}

	return NewExpectSession(ExpectSessionConfig{
		Expecter:    exp,
		SessionType: "TELNET",
	})
}
