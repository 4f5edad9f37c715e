package cli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nanoncore/nano-virtualwire/types"
)

// ErrMissingParam is returned when a template placeholder has no value
var ErrMissingParam = errors.New("missing command parameter")

var placeholderRE = regexp.MustCompile(`\{(\w+)\}`)

// rawErrorRE catches device error lines no ErrorMap entry recognised
var rawErrorRE = regexp.MustCompile(`(?i)error:`)

// Action reacts to an in-band prompt seen while waiting for a command
type Action struct {
	Pattern *regexp.Regexp
	Handle  func(ctx context.Context, s Session) error
}

// ActionMap is evaluated in declaration order; the first match wins
type ActionMap []Action

// ErrorPattern maps device output to a human readable label
type ErrorPattern struct {
	Pattern *regexp.Regexp
	Label   string
}

// ErrorMap is evaluated in declaration order; the first match wins
type ErrorMap []ErrorPattern

// Match returns the label of the first pattern found in output
func (m ErrorMap) Match(output string) (string, bool) {
	for _, e := range m {
		if e.Pattern.MatchString(output) {
			return e.Label, true
		}
	}
	return "", false
}

// NewErrorMap builds an ErrorMap from (pattern, label) pairs
func NewErrorMap(pairs ...[2]string) ErrorMap {
	m := make(ErrorMap, 0, len(pairs))
	for _, p := range pairs {
		m = append(m, ErrorPattern{Pattern: regexp.MustCompile(p[0]), Label: p[1]})
	}
	return m
}

// SendLine returns an action handler that sends the value produced by fn
func SendLine(fn func() string) func(ctx context.Context, s Session) error {
	return func(_ context.Context, s Session) error {
		return s.Send(fn())
	}
}

// CommandSender runs one command in the current mode of a checked out session
type CommandSender interface {
	SendCommand(ctx context.Context, command string, actions ActionMap, errs ErrorMap) (string, error)
}

// CommandTemplate is an immutable parameterised command
type CommandTemplate struct {
	Command   string
	ActionMap ActionMap
	ErrorMap  ErrorMap
}

// NewCommandTemplate creates a template with an error map and no actions
func NewCommandTemplate(command string, errs ErrorMap) *CommandTemplate {
	return &CommandTemplate{Command: command, ErrorMap: errs}
}

// Render substitutes {name} placeholders. Every placeholder must be present
// in params.
func (t *CommandTemplate) Render(params map[string]string) (string, error) {
	var missing []string
	rendered := placeholderRE.ReplaceAllStringFunc(t.Command, func(m string) string {
		name := m[1 : len(m)-1]
		value, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s in %q", ErrMissingParam, strings.Join(missing, ", "), t.Command)
	}
	return rendered, nil
}

// Execute renders the template, sends it and returns the cleaned output.
// Output matching the error map yields a *types.CommandError with the
// mapped label; unmapped "error:" lines are surfaced verbatim.
func (t *CommandTemplate) Execute(ctx context.Context, sender CommandSender, params map[string]string) (string, error) {
	command, err := t.Render(params)
	if err != nil {
		return "", err
	}

	return sender.SendCommand(ctx, command, t.ActionMap, t.ErrorMap)
}

// checkOutput applies errs to output, then the raw error fallback
func checkOutput(command, output string, errs ErrorMap) error {
	if label, ok := errs.Match(output); ok {
		return &types.CommandError{Label: label, Command: command, Output: output}
	}
	for _, line := range strings.Split(output, "\n") {
		if rawErrorRE.MatchString(line) {
			return &types.CommandError{Label: strings.TrimSpace(line), Command: command, Output: output}
		}
	}
	return nil
}
