package cli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

// ErrNoModePath is returned when two modes are not connected in the graph
var ErrNoModePath = errors.New("no path between command modes")

// Credentials are read by prompt actions when the prompt appears, so a
// later Login is picked up by modes built earlier.
type Credentials struct {
	mu       sync.RWMutex
	username string
	password string
}

// Set replaces username and password
func (c *Credentials) Set(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.password = password
}

// Username returns the current username
func (c *Credentials) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// Password returns the current password
func (c *Credentials) Password() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.password
}

// CommandMode describes one CLI state of a session
type CommandMode struct {
	Name         string
	Prompt       *regexp.Regexp
	EnterCommand string
	ExitCommand  string

	EnterActionMap ActionMap
	ExitActionMap  ActionMap
	EnterErrorMap  ErrorMap
	ExitErrorMap   ErrorMap

	// EnterActions runs once the prompt of this mode has been reached
	EnterActions func(ctx context.Context, s CommandSender) error
}

// Transition is one step of a walk through the mode graph. Enter steps
// move into Mode from its parent, exit steps leave Mode for its parent.
type Transition struct {
	Mode  *CommandMode
	Enter bool
}

func (t Transition) String() string {
	if t.Enter {
		return "enter " + t.Mode.Name
	}
	return "exit " + t.Mode.Name
}

// ModeGraph is a forest of command modes: an edge parent -> child means the
// child is entered from the parent and exits back to it.
type ModeGraph struct {
	modes  map[string]*CommandMode
	parent map[string]string
	order  []string
}

// NewModeGraph creates an empty graph
func NewModeGraph() *ModeGraph {
	return &ModeGraph{
		modes:  make(map[string]*CommandMode),
		parent: make(map[string]string),
	}
}

// Add registers mode under parent. An empty parent makes mode a root.
func (g *ModeGraph) Add(parent string, mode *CommandMode) error {
	if mode == nil || mode.Name == "" {
		return fmt.Errorf("command mode must have a name")
	}
	if _, exists := g.modes[mode.Name]; exists {
		return fmt.Errorf("command mode %q already defined", mode.Name)
	}
	if parent != "" {
		if _, ok := g.modes[parent]; !ok {
			return fmt.Errorf("parent mode %q is not defined", parent)
		}
	}
	g.modes[mode.Name] = mode
	g.parent[mode.Name] = parent
	g.order = append(g.order, mode.Name)
	return nil
}

// Mode returns the mode registered under name
func (g *ModeGraph) Mode(name string) (*CommandMode, bool) {
	m, ok := g.modes[name]
	return m, ok
}

// Parent returns the parent of name, or nil for a root
func (g *ModeGraph) Parent(name string) *CommandMode {
	return g.modes[g.parent[name]]
}

// Modes returns all modes in registration order
func (g *ModeGraph) Modes() []*CommandMode {
	modes := make([]*CommandMode, 0, len(g.order))
	for _, name := range g.order {
		modes = append(modes, g.modes[name])
	}
	return modes
}

// Prompts returns every mode prompt in registration order
func (g *ModeGraph) Prompts() []*regexp.Regexp {
	prompts := make([]*regexp.Regexp, 0, len(g.order))
	for _, name := range g.order {
		prompts = append(prompts, g.modes[name].Prompt)
	}
	return prompts
}

// ancestors returns name followed by its parents up to the root
func (g *ModeGraph) ancestors(name string) []string {
	var chain []string
	for cur := name; cur != ""; cur = g.parent[cur] {
		chain = append(chain, cur)
	}
	return chain
}

// Path returns the transitions that move a session from mode from to mode
// to: exits up to the closest common ancestor, then enters down.
func (g *ModeGraph) Path(from, to string) ([]Transition, error) {
	if _, ok := g.modes[from]; !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrNoModePath, from)
	}
	if _, ok := g.modes[to]; !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrNoModePath, to)
	}

	up := g.ancestors(from)
	down := g.ancestors(to)

	depth := make(map[string]int, len(up))
	for i, name := range up {
		depth[name] = i
	}

	pivot := -1
	var downIdx int
	for i, name := range down {
		if d, ok := depth[name]; ok {
			pivot = d
			downIdx = i
			break
		}
	}
	if pivot < 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoModePath, from, to)
	}

	var path []Transition
	for _, name := range up[:pivot] {
		path = append(path, Transition{Mode: g.modes[name], Enter: false})
	}
	for i := downIdx - 1; i >= 0; i-- {
		path = append(path, Transition{Mode: g.modes[down[i]], Enter: true})
	}
	return path, nil
}

// Detect returns the mode whose prompt matches the last line of output.
// Deeper modes are checked first.
func (g *ModeGraph) Detect(output string) (*CommandMode, bool) {
	last := common.LastLine(common.StripANSI(output))
	if last == "" {
		return nil, false
	}
	for i := len(g.order) - 1; i >= 0; i-- {
		m := g.modes[g.order[i]]
		if m.Prompt.MatchString(last) {
			return m, true
		}
	}
	return nil, false
}
