package pluribus

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
	"github.com/nanoncore/nano-virtualwire/types"
	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

var associationRE = regexp.MustCompile(`^(\d+):(\d+):([\w-]+):(\w+):([\d,-]*)$`)

// Association is a named virtual wire between two logical ports
type Association struct {
	Name string
	// Ports holds master then slave
	Ports        [2]string
	Bidir        bool
	MonitorPorts []string
}

// Peer returns the endpoint opposite to port
func (a *Association) Peer(port string) string {
	if a.Ports[0] == port {
		return a.Ports[1]
	}
	return a.Ports[0]
}

// Has reports whether port is one of the two endpoints
func (a *Association) Has(port string) bool {
	return a.Ports[0] == port || a.Ports[1] == port
}

// ParseAssociations parses "master:slave:name:bidir:monitor" lines in
// device order
func ParseAssociations(output string) ([]*Association, error) {
	var assocs []*Association
	for _, rec := range common.MatchingLines(associationRE, common.StripANSI(output)) {
		m := associationRE.FindStringSubmatch(rec)
		monitor, err := common.ExpandPortRange(m[5])
		if err != nil {
			return nil, types.NewValidationError("association %s: %v", m[3], err)
		}
		assocs = append(assocs, &Association{
			Name:         m[3],
			Ports:        [2]string{m[1], m[2]},
			Bidir:        strings.EqualFold(m[4], "true"),
			MonitorPorts: monitor,
		})
	}
	return assocs, nil
}

// MappingActions reconciles port associations on the device. Its tables
// are loaded on first use and never refreshed, so an instance must not
// outlive one driver command.
type MappingActions struct {
	sender cli.CommandSender
	ports  portTranslator

	assocs       []*Association
	assocsLoaded bool
}

// NewMappingActions creates actions with empty caches
func NewMappingActions(sender cli.CommandSender) *MappingActions {
	return &MappingActions{
		sender: sender,
		ports:  portTranslator{template: physToLogicalTemplate},
	}
}

func (a *MappingActions) associations(ctx context.Context) ([]*Association, error) {
	if !a.assocsLoaded {
		out, err := associationsTemplate.Execute(ctx, a.sender, nil)
		if err != nil {
			return nil, err
		}
		assocs, err := ParseAssociations(out)
		if err != nil {
			return nil, err
		}
		a.assocs = assocs
		a.assocsLoaded = true
	}
	return a.assocs, nil
}

// findAssociation returns the association owning port, or nil
func (a *MappingActions) findAssociation(ctx context.Context, port string) (*Association, error) {
	assocs, err := a.associations(ctx)
	if err != nil {
		return nil, err
	}
	var found []*Association
	for _, assoc := range assocs {
		if assoc.Has(port) {
			found = append(found, assoc)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}
	names := make([]string, 0, len(found))
	for _, f := range found {
		names = append(names, f.Name)
	}
	return nil, &types.IntegrityError{
		Msg: fmt.Sprintf("Port %s belongs to more than one association: %s", port, strings.Join(names, ", ")),
	}
}

func (a *MappingActions) forget(assoc *Association) {
	a.assocs = slices.DeleteFunc(a.assocs, func(x *Association) bool { return x == assoc })
}

func (a *MappingActions) logical(ctx context.Context, phys string) (string, error) {
	return a.ports.logical(ctx, a.sender, phys)
}

func (a *MappingActions) logicalAll(ctx context.Context, phys []string) ([]string, error) {
	ids := make([]string, 0, len(phys))
	for _, p := range phys {
		id, err := a.logical(ctx, p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsEnabled fails unless the device reports "<id>:on" for port
func (a *MappingActions) IsEnabled(ctx context.Context, port string) error {
	out, err := isEnabledTemplate.Execute(ctx, a.sender, map[string]string{"port": port})
	if err != nil {
		return err
	}
	want := port + ":on"
	for _, line := range strings.Split(strings.ToLower(out), "\n") {
		if strings.TrimSpace(line) == want {
			return nil
		}
	}
	return types.NewPreconditionError("Port %s is disabled", port)
}

// MapUni creates "<master>-uni-<slave>" for every slave. Failures are
// collected per slave; created associations are kept.
func (a *MappingActions) MapUni(ctx context.Context, masterPort string, slavePorts []string) error {
	master, err := a.logical(ctx, masterPort)
	if err != nil {
		return err
	}
	slaves, err := a.logicalAll(ctx, slavePorts)
	if err != nil {
		return err
	}
	if err := a.IsEnabled(ctx, master); err != nil {
		return err
	}

	var errs []error
	for _, slave := range slaves {
		err := a.IsEnabled(ctx, slave)
		if err == nil {
			_, err = mapUniTemplate.Execute(ctx, a.sender, map[string]string{
				"name":         fmt.Sprintf("%s-uni-%s", master, slave),
				"master_ports": master,
				"slave_ports":  slave,
			})
		}
		if err != nil {
			errs = append(errs, err)
			if types.IsSessionError(err) {
				break
			}
		}
	}
	return types.Aggregate(errs)
}

// MapBidi creates "<master>-bidi-<slave>"
func (a *MappingActions) MapBidi(ctx context.Context, masterPort, slavePort string) error {
	master, err := a.logical(ctx, masterPort)
	if err != nil {
		return err
	}
	slave, err := a.logical(ctx, slavePort)
	if err != nil {
		return err
	}
	if err := a.IsEnabled(ctx, master); err != nil {
		return err
	}
	if err := a.IsEnabled(ctx, slave); err != nil {
		return err
	}
	_, err = mapBidiTemplate.Execute(ctx, a.sender, map[string]string{
		"name":         fmt.Sprintf("%s-bidi-%s", master, slave),
		"master_ports": master,
		"slave_ports":  slave,
	})
	return err
}

// MapClear deletes the association owning each port. Ports without an
// association are skipped.
func (a *MappingActions) MapClear(ctx context.Context, ports []string) error {
	ids, err := a.logicalAll(ctx, ports)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		if err := a.removeAssociationOf(ctx, id); err != nil {
			errs = append(errs, err)
			if types.IsSessionError(err) {
				break
			}
		}
	}
	return types.Aggregate(errs)
}

func (a *MappingActions) removeAssociationOf(ctx context.Context, port string) error {
	assoc, err := a.findAssociation(ctx, port)
	if err != nil || assoc == nil {
		return err
	}
	return a.removeAssociation(ctx, assoc)
}

func (a *MappingActions) removeAssociation(ctx context.Context, assoc *Association) error {
	if _, err := mapClearTemplate.Execute(ctx, a.sender, map[string]string{"name": assoc.Name}); err != nil {
		return err
	}
	a.forget(assoc)
	return nil
}

// modifyMonitorPorts writes ports only when they differ from the cache
func (a *MappingActions) modifyMonitorPorts(ctx context.Context, assoc *Association, ports []string) error {
	if slices.Equal(assoc.MonitorPorts, ports) {
		return nil
	}
	_, err := modifyMonitorPortsTemplate.Execute(ctx, a.sender, map[string]string{
		"name":  assoc.Name,
		"ports": strings.Join(ports, ","),
	})
	if err != nil {
		return err
	}
	assoc.MonitorPorts = ports
	return nil
}

// MapClearTo removes the master's association when its peer is among
// slavePorts, otherwise removes slavePorts from its monitor ports.
func (a *MappingActions) MapClearTo(ctx context.Context, masterPort string, slavePorts []string) error {
	master, err := a.logical(ctx, masterPort)
	if err != nil {
		return err
	}
	slaves, err := a.logicalAll(ctx, slavePorts)
	if err != nil {
		return err
	}

	var errs []error
	if err := a.clearTo(ctx, master, slaves); err != nil {
		errs = append(errs, err)
	}
	return types.Aggregate(errs)
}

func (a *MappingActions) clearTo(ctx context.Context, master string, slaves []string) error {
	assoc, err := a.findAssociation(ctx, master)
	if err != nil || assoc == nil {
		return err
	}
	if slices.Contains(slaves, assoc.Peer(master)) {
		return a.removeAssociation(ctx, assoc)
	}
	monitor := slices.DeleteFunc(slices.Clone(assoc.MonitorPorts), func(p string) bool {
		return slices.Contains(slaves, p)
	})
	return a.modifyMonitorPorts(ctx, assoc, monitor)
}

// MapTap appends monitor ports to the association owning masterPort
func (a *MappingActions) MapTap(ctx context.Context, masterPort string, monitorPorts []string) error {
	master, err := a.logical(ctx, masterPort)
	if err != nil {
		return err
	}
	monitors, err := a.logicalAll(ctx, monitorPorts)
	if err != nil {
		return err
	}
	if err := a.IsEnabled(ctx, master); err != nil {
		return err
	}

	assoc, err := a.findAssociation(ctx, master)
	if err != nil {
		return err
	}
	if assoc == nil {
		return types.NewPreconditionError("Cannot find association with port %s", master)
	}

	updated := slices.Clone(assoc.MonitorPorts)
	for _, port := range monitors {
		if err := a.IsEnabled(ctx, port); err != nil {
			return err
		}
		if slices.Contains(updated, port) {
			return types.NewPreconditionError("Port %s is already a monitor port of association %s", port, assoc.Name)
		}
		updated = append(updated, port)
	}
	return a.modifyMonitorPorts(ctx, assoc, updated)
}
