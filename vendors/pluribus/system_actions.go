package pluribus

import (
	"context"
	"regexp"
	"strings"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
	"github.com/nanoncore/nano-virtualwire/types"
	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

var physToLogicalRE = regexp.MustCompile(`^([\w.]+):(\d+)$`)

// ParsePhysToLogical parses "bezel:logical" lines
func ParsePhysToLogical(output string) map[string]string {
	table := make(map[string]string)
	for _, rec := range common.MatchingLines(physToLogicalRE, common.StripANSI(output)) {
		m := physToLogicalRE.FindStringSubmatch(rec)
		table[m[1]] = m[2]
	}
	return table
}

// portTranslator lazily loads the bezel to logical table once
type portTranslator struct {
	template *cli.CommandTemplate
	table    map[string]string
	loaded   bool
}

func (p *portTranslator) logical(ctx context.Context, sender cli.CommandSender, phys string) (string, error) {
	if !p.loaded {
		out, err := p.template.Execute(ctx, sender, nil)
		if err != nil {
			return "", err
		}
		p.table = ParsePhysToLogical(out)
		p.loaded = true
	}
	if id, ok := p.table[phys]; ok && id != "" {
		return id, nil
	}
	return "", types.NewValidationError("Cannot convert physical port name to logical")
}

// SystemActions reads and writes switch level settings
type SystemActions struct {
	sender cli.CommandSender
	ports  portTranslator
}

// NewSystemActions creates actions with an empty port cache
func NewSystemActions(sender cli.CommandSender) *SystemActions {
	return &SystemActions{
		sender: sender,
		ports:  portTranslator{template: systemPhysToLogicalTemplate},
	}
}

// GetStateID returns the second whitespace separated field of the motd line
func (a *SystemActions) GetStateID(ctx context.Context) (string, error) {
	out, err := getStateIDTemplate.Execute(ctx, a.sender, nil)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return "", nil
	}
	return fields[1], nil
}

// SetStateID stores token in the motd
func (a *SystemActions) SetStateID(ctx context.Context, token string) error {
	_, err := setStateIDTemplate.Execute(ctx, a.sender, map[string]string{"state_id": token})
	return err
}

// SetAutoNegotiation enables autoneg when value is "true" (any case) and
// disables it otherwise
func (a *SystemActions) SetAutoNegotiation(ctx context.Context, physPort, value string) error {
	id, err := a.ports.logical(ctx, a.sender, physPort)
	if err != nil {
		return err
	}
	t := autoNegOffTemplate
	if strings.EqualFold(value, "true") {
		t = autoNegOnTemplate
	}
	_, err = t.Execute(ctx, a.sender, map[string]string{"port_id": id})
	return err
}
