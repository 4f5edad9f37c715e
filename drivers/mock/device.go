package mock

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

// Port is a simulated switch port
type Port struct {
	ID      string
	Bezel   string
	Speed   string
	Autoneg bool
	Enabled bool
}

// Association is a simulated port association. Master and Slave are kept
// as printed, so range expressions can be injected for negative tests.
type Association struct {
	Name    string
	Master  string
	Slave   string
	Bidir   bool
	Monitor []string
}

// Device is an in-memory Pluribus switch. It answers the virtual-wire CLI
// subset over any number of mock sessions.
type Device struct {
	mu sync.Mutex

	Model      string
	Serial     string
	Version    string
	SwitchName string
	Motd       string
	Banner     string

	ports  []*Port
	assocs []*Association

	// InitialMode is "shell" (default) or "cli"
	InitialMode string
	// CLILogin makes "cli" ask for username and password
	CLILogin bool
	Username string
	Password string

	dialErr    error
	hang       map[string]bool
	failures   map[string]string
	cmdHistory []string
	dials      int
	closed     int
}

// NewDevice creates a switch with ports 1..n, bezel id equal to port id
func NewDevice(n int) *Device {
	d := &Device{
		Model:       "NSU-F-48-6",
		Serial:      "1714LK900005",
		Version:     "2.6.1-20601",
		SwitchName:  "pluribus",
		Motd:        "Netvisor",
		Banner:      "Netvisor OS Command Line Interface",
		InitialMode: "shell",
		hang:        make(map[string]bool),
		failures:    make(map[string]string),
	}
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(i)
		d.ports = append(d.ports, &Port{ID: id, Bezel: id, Speed: "10g", Autoneg: true, Enabled: true})
	}
	return d
}

// SetBezel changes the bezel id of a port
func (d *Device) SetBezel(id, bezel string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.port(id); p != nil {
		p.Bezel = bezel
	}
}

// SetEnabled changes the admin state of a port
func (d *Device) SetEnabled(id string, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.port(id); p != nil {
		p.Enabled = enabled
	}
}

// RemoveBezel drops a port from the bezel map
func (d *Device) RemoveBezel(id string) {
	d.SetBezel(id, "")
}

// AddAssociation inserts an association without any validation
func (d *Device) AddAssociation(name, master, slave string, bidir bool, monitor ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assocs = append(d.assocs, &Association{
		Name:    name,
		Master:  master,
		Slave:   slave,
		Bidir:   bidir,
		Monitor: append([]string(nil), monitor...),
	})
}

// Association returns a copy of the named association
func (d *Device) Association(name string) (Association, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a := d.association(name); a != nil {
		c := *a
		c.Monitor = append([]string(nil), a.Monitor...)
		return c, true
	}
	return Association{}, false
}

// Associations returns the sorted association names
func (d *Device) Associations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.assocs))
	for _, a := range d.assocs {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return names
}

// PortState returns a copy of a port
func (d *Device) PortState(id string) (Port, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.port(id); p != nil {
		return *p, true
	}
	return Port{}, false
}

// FailDial makes every new session fail with err; nil restores dialing
func (d *Device) FailDial(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialErr = err
}

// Hang makes commands starting with prefix never return a prompt
func (d *Device) Hang(prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hang[prefix] = true
}

// Fail makes commands starting with prefix print output instead of running
func (d *Device) Fail(prefix, output string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[prefix] = output
}

// Commands returns every command received in CLI mode
func (d *Device) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.cmdHistory...)
}

// ClearCommands resets the command history
func (d *Device) ClearCommands() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmdHistory = nil
}

// Dials returns how many sessions were opened
func (d *Device) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Closed returns how many sessions were closed
func (d *Device) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Device) port(id string) *Port {
	for _, p := range d.ports {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (d *Device) association(name string) *Association {
	for _, a := range d.assocs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (d *Device) owner(port string) *Association {
	for _, a := range d.assocs {
		if a.Master == port || a.Slave == port {
			return a
		}
	}
	return nil
}

func (d *Device) cliPrompt() string {
	return fmt.Sprintf("CLI (network-admin@%s) > ", d.SwitchName)
}

func (d *Device) shellPrompt() string {
	return fmt.Sprintf("admin@%s:~$ ", d.SwitchName)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// compactPorts prints ascending runs as ranges: [3 4 5 7] -> "3-5,7"
func compactPorts(ports []string) string {
	var parts []string
	for i := 0; i < len(ports); {
		start, err := strconv.Atoi(ports[i])
		j := i + 1
		if err == nil {
			for j < len(ports) {
				next, err := strconv.Atoi(ports[j])
				if err != nil || next != start+(j-i) {
					break
				}
				j++
			}
		}
		if j-i > 1 {
			parts = append(parts, ports[i]+"-"+ports[j-1])
		} else {
			parts = append(parts, ports[i])
		}
		i = j
	}
	return strings.Join(parts, ",")
}

// tokenize splits a command line on spaces, honouring double quotes
func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote, have := false, false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			have = true
		case r == ' ' && !inQuote:
			if have {
				tokens = append(tokens, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if have {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// arg returns the token following key
func arg(tokens []string, key string) (string, bool) {
	for i := 0; i < len(tokens)-1; i++ {
		if tokens[i] == key {
			return tokens[i+1], true
		}
	}
	return "", false
}

func hasToken(tokens []string, key string) bool {
	for _, t := range tokens {
		if t == key {
			return true
		}
	}
	return false
}

// hangs reports whether line should never be answered. Caller holds mu.
func (d *Device) hangs(line string) bool {
	for prefix := range d.hang {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// execCLI runs one CLI command and returns its output. Caller holds mu.
func (d *Device) execCLI(line string) string {
	d.cmdHistory = append(d.cmdHistory, line)

	for prefix, out := range d.failures {
		if strings.HasPrefix(line, prefix) {
			return out
		}
	}

	tokens := tokenize(line)
	if len(tokens) == 0 {
		return ""
	}

	switch tokens[0] {
	case "switch-local", "pager":
		return ""
	case "switch-info-show":
		return fmt.Sprintf("model:          %s\nchassis-serial: %s", d.Model, d.Serial)
	case "software-show":
		return fmt.Sprintf("version:              %s", d.Version)
	case "switch-setup-show":
		if hasToken(tokens, "motd") {
			return fmt.Sprintf("motd:        %s", d.Motd)
		}
		return fmt.Sprintf("switch-name: %s", d.SwitchName)
	case "switch-setup-modify":
		if v, ok := arg(tokens, "motd"); ok {
			d.Motd = v
			return ""
		}
	case "port-config-show":
		return d.portConfigShow(tokens)
	case "port-config-modify":
		return d.portConfigModify(tokens)
	case "bezel-portmap-show":
		return d.bezelShow(tokens)
	case "port-association-show":
		return d.associationShow(tokens)
	case "port-association-create":
		return d.associationCreate(tokens)
	case "port-association-delete":
		return d.associationDelete(tokens)
	case "port-association-modify":
		return d.associationModify(tokens)
	}
	return fmt.Sprintf("Error: Unknown command: %s", tokens[0])
}

func (d *Device) portConfigShow(tokens []string) string {
	if id, ok := arg(tokens, "port"); ok {
		p := d.port(id)
		if p == nil {
			return fmt.Sprintf("Error: port %s not found", id)
		}
		return fmt.Sprintf("%s:%s", p.ID, onOff(p.Enabled))
	}
	lines := make([]string, 0, len(d.ports))
	for _, p := range d.ports {
		lines = append(lines, fmt.Sprintf("%s:%s:%s", p.ID, p.Speed, onOff(p.Autoneg)))
	}
	return strings.Join(lines, "\n")
}

func (d *Device) portConfigModify(tokens []string) string {
	id, _ := arg(tokens, "port")
	p := d.port(id)
	if p == nil {
		return fmt.Sprintf("Error: port %s not found", id)
	}
	switch {
	case hasToken(tokens, "autoneg"):
		p.Autoneg = true
	case hasToken(tokens, "no-autoneg"):
		p.Autoneg = false
	}
	return ""
}

func (d *Device) bezelShow(tokens []string) string {
	format, _ := arg(tokens, "format")
	var lines []string
	for _, p := range d.ports {
		if p.Bezel == "" {
			continue
		}
		if format == "bezel-intf,port" {
			lines = append(lines, p.Bezel+":"+p.ID)
		} else {
			lines = append(lines, p.ID+":"+p.Bezel)
		}
	}
	return strings.Join(lines, "\n")
}

func (d *Device) associationShow(tokens []string) string {
	format, _ := arg(tokens, "format")
	withName := strings.Contains(format, "name")
	lines := make([]string, 0, len(d.assocs))
	for _, a := range d.assocs {
		bidir := strconv.FormatBool(a.Bidir)
		if withName {
			lines = append(lines, fmt.Sprintf("%s:%s:%s:%s:%s", a.Master, a.Slave, a.Name, bidir, compactPorts(a.Monitor)))
		} else {
			lines = append(lines, fmt.Sprintf("%s:%s:%s", a.Master, a.Slave, bidir))
		}
	}
	return strings.Join(lines, "\n")
}

func (d *Device) associationCreate(tokens []string) string {
	name, _ := arg(tokens, "name")
	master, _ := arg(tokens, "master-ports")
	slave, _ := arg(tokens, "slave-ports")

	if d.association(name) != nil {
		return fmt.Sprintf("Port association %s already exists", name)
	}
	for _, id := range []string{master, slave} {
		if d.port(id) == nil {
			return fmt.Sprintf("Error: port %s not found", id)
		}
		if a := d.owner(id); a != nil {
			return fmt.Sprintf("port %s conflicts with port-association %s", id, a.Name)
		}
	}
	d.assocs = append(d.assocs, &Association{
		Name:   name,
		Master: master,
		Slave:  slave,
		Bidir:  hasToken(tokens, "bidir"),
	})
	return ""
}

func (d *Device) associationDelete(tokens []string) string {
	name, _ := arg(tokens, "name")
	for i, a := range d.assocs {
		if a.Name == name {
			d.assocs = append(d.assocs[:i], d.assocs[i+1:]...)
			return ""
		}
	}
	return "Unable to find port-association to delete"
}

func (d *Device) associationModify(tokens []string) string {
	name, _ := arg(tokens, "name")
	a := d.association(name)
	if a == nil {
		return fmt.Sprintf("Error: port-association %s not found", name)
	}
	if ports, ok := arg(tokens, "monitor-ports"); ok {
		expanded, err := common.ExpandPortRange(ports)
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		for _, id := range expanded {
			if d.port(id) == nil {
				return fmt.Sprintf("Error: port %s not found", id)
			}
		}
		a.Monitor = expanded
	}
	return ""
}
