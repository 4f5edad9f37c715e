package pluribus

import (
	"context"
	"regexp"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
)

// Mode names
const (
	ShellMode   = "shell"
	DefaultMode = "default"
)

var (
	shellPrompt   = regexp.MustCompile(`.+\:.+\$\s*$`)
	defaultPrompt = regexp.MustCompile(`CLI\s+\(.+\)\s+>`)
)

// defaultModeSetup runs after every entry into the CLI
var defaultModeSetup = []string{"switch-local", "pager off"}

// NewModeGraph builds shell -> default. The default mode answers CLI
// login prompts from creds at the time they appear.
func NewModeGraph(creds *cli.Credentials) *cli.ModeGraph {
	shell := &cli.CommandMode{
		Name:          ShellMode,
		Prompt:        shellPrompt,
		EnterCommand:  "shell",
		ExitCommand:   "exit",
		EnterErrorMap: genericErrorMap,
		ExitErrorMap:  genericErrorMap,
	}

	def := &cli.CommandMode{
		Name:         DefaultMode,
		Prompt:       defaultPrompt,
		EnterCommand: "cli",
		ExitCommand:  "exit",
		EnterActionMap: cli.ActionMap{
			{Pattern: regexp.MustCompile(`[Uu]sername\s\(.+\):`), Handle: cli.SendLine(creds.Username)},
			{Pattern: regexp.MustCompile(`[Pp]assword:`), Handle: cli.SendLine(creds.Password)},
		},
		EnterErrorMap: genericErrorMap,
		ExitErrorMap:  genericErrorMap,
		EnterActions: func(ctx context.Context, s cli.CommandSender) error {
			for _, command := range defaultModeSetup {
				if _, err := s.SendCommand(ctx, command, nil, genericErrorMap); err != nil {
					return err
				}
			}
			return nil
		},
	}

	g := cli.NewModeGraph()
	// Both adds are static and cannot fail
	_ = g.Add("", shell)
	_ = g.Add(ShellMode, def)
	return g
}
