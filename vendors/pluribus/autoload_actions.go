package pluribus

import (
	"context"
	"regexp"
	"strings"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
	"github.com/nanoncore/nano-virtualwire/types"
	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

var (
	portRecordRE        = regexp.MustCompile(`^\d+:.+:.+$`)
	physPortRecordRE    = regexp.MustCompile(`^\d+:.+$`)
	associationRecordRE = regexp.MustCompile(`^[\d,-]+:[\d,-]+:\w+$`)
)

// PortRecord is one row of the ports table, keyed by logical id
type PortRecord struct {
	Speed   string
	Autoneg string
	PhysID  string
}

// AutoloadActions reads inventory tables. It holds no cache.
type AutoloadActions struct {
	sender cli.CommandSender
}

// NewAutoloadActions binds the actions to a session in default mode
func NewAutoloadActions(sender cli.CommandSender) *AutoloadActions {
	return &AutoloadActions{sender: sender}
}

// BoardTable merges switch identity, software version and switch setup
func (a *AutoloadActions) BoardTable(ctx context.Context) (map[string]string, error) {
	var blocks []string
	for _, t := range []*cli.CommandTemplate{switchInfoTemplate, softwareVersionTemplate, switchSetupTemplate} {
		out, err := t.Execute(ctx, a.sender, nil)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, out)
	}
	return ParseBoardTable(blocks...), nil
}

// PortsTable returns logical ports that have a bezel mapping
func (a *AutoloadActions) PortsTable(ctx context.Context) (map[string]PortRecord, error) {
	out, err := portShowTemplate.Execute(ctx, a.sender, nil)
	if err != nil {
		return nil, err
	}
	phys, err := a.PhysPortsTable(ctx)
	if err != nil {
		return nil, err
	}
	return ParsePortsTable(out, phys), nil
}

// PhysPortsTable maps logical id to bezel id
func (a *AutoloadActions) PhysPortsTable(ctx context.Context) (map[string]string, error) {
	out, err := physPortShowTemplate.Execute(ctx, a.sender, nil)
	if err != nil {
		return nil, err
	}
	return ParsePhysPortsTable(out), nil
}

// AssociationsTable maps slave to master logical id, both directions for
// bidirectional associations
func (a *AutoloadActions) AssociationsTable(ctx context.Context) (map[string]string, error) {
	out, err := autoloadAssociationsTemplate.Execute(ctx, a.sender, nil)
	if err != nil {
		return nil, err
	}
	return ParseAutoloadAssociations(out)
}

// ParseBoardTable merges key/value blocks; later blocks win
func ParseBoardTable(blocks ...string) map[string]string {
	table := make(map[string]string)
	for _, block := range blocks {
		for k, v := range common.ParseKeyValue(common.StripANSI(block)) {
			table[k] = v
		}
	}
	return table
}

// ParsePhysPortsTable parses "logical:bezel" lines
func ParsePhysPortsTable(output string) map[string]string {
	table := make(map[string]string)
	for _, rec := range common.MatchingLines(physPortRecordRE, common.StripANSI(output)) {
		parts := strings.Split(rec, ":")
		if len(parts) != 2 {
			continue
		}
		table[parts[0]] = parts[1]
	}
	return table
}

// ParsePortsTable parses "logical:speed:autoneg" lines and drops ports
// missing from phys
func ParsePortsTable(output string, phys map[string]string) map[string]PortRecord {
	table := make(map[string]PortRecord)
	for _, rec := range common.MatchingLines(portRecordRE, common.StripANSI(output)) {
		parts := strings.Split(rec, ":")
		if len(parts) != 3 {
			continue
		}
		physID := phys[parts[0]]
		if physID == "" {
			continue
		}
		table[parts[0]] = PortRecord{Speed: parts[1], Autoneg: parts[2], PhysID: physID}
	}
	return table
}

// ParseAutoloadAssociations parses "master:slave:bidir" lines. Range
// expressions on either side are rejected.
func ParseAutoloadAssociations(output string) (map[string]string, error) {
	table := make(map[string]string)
	for _, rec := range common.MatchingLines(associationRecordRE, common.StripANSI(output)) {
		parts := strings.Split(rec, ":")
		master, slave, bidir := parts[0], parts[1], parts[2]
		if common.HasPortRange(master) || common.HasPortRange(slave) {
			return nil, types.NewValidationError("Cannot build mappings, driver does not support port ranges")
		}
		if strings.EqualFold(bidir, "true") {
			table[master] = slave
			table[slave] = master
		} else {
			table[slave] = master
		}
	}
	return table, nil
}
