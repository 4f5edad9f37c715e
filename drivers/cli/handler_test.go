package cli

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/nanoncore/nano-virtualwire/types"
)

func newTestHandler(t *testing.T, dialer Dialer, sessionTypes ...string) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerConfig{
		Graph:        testGraph(t),
		DefaultMode:  "exec",
		Dialer:       dialer,
		SessionTypes: sessionTypes,
		Timeout:      time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func runCommand(h *Handler, mode, command string) (string, error) {
	var out string
	err := h.Run(context.Background(), mode, func(ctx context.Context, s CommandSender) error {
		var err error
		out, err = s.SendCommand(ctx, command, nil, nil)
		return err
	})
	return out, err
}

func TestNewHandlerValidation(t *testing.T) {
	g := testGraph(t)
	_, err := NewHandler(HandlerConfig{DefaultMode: "exec", Dialer: &fakeDialer{}})
	assert.Error(t, err)
	_, err = NewHandler(HandlerConfig{Graph: g, DefaultMode: "enable", Dialer: &fakeDialer{}})
	assert.Error(t, err)
	_, err = NewHandler(HandlerConfig{Graph: g, DefaultMode: "exec"})
	assert.Error(t, err)
}

func TestHandlerRequiresAttributes(t *testing.T) {
	dialer := &fakeDialer{}
	h := newTestHandler(t, dialer)

	_, err := runCommand(h, "exec", "show")
	var pe *types.PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Cli Attributes is not defined, call Login command first", pe.Error())
	assert.Zero(t, dialer.Dials())
}

func TestHandlerRejectsBadAddress(t *testing.T) {
	h := newTestHandler(t, &fakeDialer{})
	err := h.DefineSessionAttributes("10.0.0.1:22", "admin", "pw")
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Incorrect resource address", ve.Error())
}

func TestHandlerRejectsUnknownSessionType(t *testing.T) {
	dialer := &fakeDialer{}
	h := newTestHandler(t, dialer, "SSH", "CONSOLE")
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	_, err := runCommand(h, "exec", "show")
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Session type CONSOLE is not defined", ve.Error())
	assert.Zero(t, dialer.Dials())
}

func TestHandlerRunMovesBetweenModes(t *testing.T) {
	dialer := &fakeDialer{setup: func(d *fakeSwitch) {
		d.outputs["show"] = "exec output"
		d.outputs["commit"] = "config output"
	}}
	h := newTestHandler(t, dialer)
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	out, err := runCommand(h, "exec", "show")
	require.NoError(t, err)
	assert.Equal(t, "exec output", out)

	out, err = runCommand(h, "config", "commit")
	require.NoError(t, err)
	assert.Equal(t, "config output", out)

	out, err = runCommand(h, "exec", "show")
	require.NoError(t, err)
	assert.Equal(t, "exec output", out)

	require.Equal(t, 1, dialer.Dials(), "session is reused between runs")
	assert.Equal(t, []string{"cli", "show", "configure", "commit", "end", "show"}, dialer.Session(0).Sent())

	opts := dialer.opts[0]
	assert.Equal(t, "SSH", opts.SessionType)
	assert.Equal(t, 22, opts.Port)
	assert.Equal(t, "admin", opts.Username)
}

func TestHandlerFallsBackToNextSessionType(t *testing.T) {
	dialer := &fakeDialer{failures: map[string]error{"SSH": errors.New("connection refused")}}
	h := newTestHandler(t, dialer, "SSH", "TELNET")
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	_, err := runCommand(h, "exec", "ls")
	var ce *types.CommandError
	require.ErrorAs(t, err, &ce, "unknown command in exec mode is a command error")

	require.Equal(t, 1, dialer.Dials())
	assert.Equal(t, "TELNET", dialer.Session(0).SessionType())
	assert.Equal(t, 23, dialer.opts[1].Port)
	assert.Equal(t, "admin", dialer.switches[0].user)
	assert.Equal(t, "pw", dialer.switches[0].pass)
	assert.Zero(t, dialer.Session(0).closed, "command errors keep the session")
}

func TestHandlerAllSessionTypesFail(t *testing.T) {
	dialer := &fakeDialer{failures: map[string]error{
		"SSH":    errors.New("ssh refused"),
		"TELNET": errors.New("telnet refused"),
	}}
	h := newTestHandler(t, dialer, "SSH", "TELNET")
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	_, err := runCommand(h, "exec", "show")
	assert.Equal(t, codes.Unavailable, sessionCode(t, err))
	assert.Contains(t, err.Error(), "ssh refused")
	assert.Contains(t, err.Error(), "telnet refused")
}

func TestHandlerSessionFaultDiscardsSession(t *testing.T) {
	dialer := &fakeDialer{setup: func(d *fakeSwitch) {
		d.hang["stuck"] = true
		d.outputs["show"] = "ok"
	}}
	h := newTestHandler(t, dialer)
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	_, err := runCommand(h, "exec", "stuck")
	assert.True(t, types.IsSessionError(err))
	assert.Equal(t, 1, dialer.Session(0).closed)

	out, err := runCommand(h, "exec", "show")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, dialer.Dials())
}

func TestHandlerPlainErrorKeepsSession(t *testing.T) {
	dialer := &fakeDialer{}
	h := newTestHandler(t, dialer)
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	boom := errors.New("parse failure")
	err := h.DefaultMode(context.Background(), func(context.Context, CommandSender) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = h.DefaultMode(context.Background(), func(context.Context, CommandSender) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, dialer.Dials())
	assert.Zero(t, dialer.Session(0).closed)
}

func TestHandlerNewAttributesOpenNewSession(t *testing.T) {
	dialer := &fakeDialer{}
	h := newTestHandler(t, dialer)
	noop := func(context.Context, CommandSender) error { return nil }

	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))
	require.NoError(t, h.DefaultMode(context.Background(), noop))
	require.NoError(t, h.DefineSessionAttributes("10.0.0.2", "admin", "pw"))
	require.NoError(t, h.DefaultMode(context.Background(), noop))

	assert.Equal(t, 2, dialer.Dials())
	assert.Equal(t, 1, dialer.Session(0).closed)
	assert.Equal(t, "10.0.0.2", dialer.opts[1].Host)
}

func TestHandlerFailedTransitionDiscards(t *testing.T) {
	dialer := &fakeDialer{setup: func(d *fakeSwitch) { d.hang["configure"] = true }}
	h := newTestHandler(t, dialer)
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	_, err := runCommand(h, "config", "commit")
	require.Error(t, err)
	assert.True(t, types.IsSessionError(err))
	assert.Equal(t, 1, dialer.Session(0).closed)
}

func TestHandlerRunsEnterActionsOnConnect(t *testing.T) {
	g := testGraph(t)
	exec, _ := g.Mode("exec")
	var ran []string
	exec.EnterActions = func(ctx context.Context, s CommandSender) error {
		ran = append(ran, "exec")
		_, err := s.SendCommand(ctx, "pager off", nil, nil)
		return err
	}

	dialer := &fakeDialer{
		banner: func(string) string { return "Welcome\r\nsw> " },
		setup: func(d *fakeSwitch) {
			d.mode = "exec"
			d.outputs["pager off"] = ""
			d.outputs["show"] = "ok"
		},
	}
	h, err := NewHandler(HandlerConfig{Graph: g, DefaultMode: "exec", Dialer: dialer, Timeout: time.Second})
	require.NoError(t, err)
	defer h.Close()
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	_, err = runCommand(h, "exec", "show")
	require.NoError(t, err)
	_, err = runCommand(h, "exec", "show")
	require.NoError(t, err)

	assert.Equal(t, []string{"exec"}, ran)
	assert.Equal(t, []string{"pager off", "show", "show"}, dialer.Session(0).Sent())
}

func TestHandlerTelnetAnswersUsernamePrompt(t *testing.T) {
	dialer := &fakeDialer{
		banner: func(string) string { return "Netvisor OS\r\nUsername (network-admin): " },
		setup:  func(d *fakeSwitch) { d.outputs["show"] = "ok" },
	}
	h := newTestHandler(t, dialer, "TELNET")
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "network-admin", "pw"))

	out, err := runCommand(h, "exec", "show")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{"network-admin", "pw", "cli", "show"}, dialer.Session(0).Sent())
	assert.Equal(t, "network-admin", dialer.switches[0].user)
	assert.Equal(t, "pw", dialer.switches[0].pass)
}

func TestHandlerPromptErrorDiscardsSession(t *testing.T) {
	g := testGraph(t)
	exec, _ := g.Mode("exec")
	exec.EnterActionMap = ActionMap{{Pattern: regexp.MustCompile(`Password: `), Handle: SendLine(func() string { return "pw" })}}
	exec.EnterErrorMap = NewErrorMap([2]string{`[Dd]enied`, "Access denied"})

	dialer := &fakeDialer{setup: func(d *fakeSwitch) { d.raw["cli"] = "Access denied\r\nPassword: " }}
	h, err := NewHandler(HandlerConfig{Graph: g, DefaultMode: "exec", Dialer: dialer, Timeout: time.Second})
	require.NoError(t, err)
	defer h.Close()
	require.NoError(t, h.DefineSessionAttributes("10.0.0.1", "admin", "pw"))

	_, err = runCommand(h, "exec", "show")
	var ce *types.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Access denied", ce.Label)
	assert.True(t, types.IsSessionError(err))
	assert.Equal(t, 1, dialer.Session(0).closed)
}
