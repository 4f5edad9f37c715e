package pluribus

import (
	"sort"
	"strconv"

	"github.com/nanoncore/nano-virtualwire/model"
)

const (
	chassisID    = "1"
	bladeID      = "1"
	chassisModel = "Pluribus Virtual Wire Chassis"
	bladeModel   = "Virtual Wire Module"
)

// Autoload assembles the resource tree from parsed tables
type Autoload struct {
	address      string
	board        map[string]string
	ports        map[string]PortRecord
	associations map[string]string
}

// NewAutoload binds the tables read by AutoloadActions
func NewAutoload(address string, board map[string]string, ports map[string]PortRecord, associations map[string]string) *Autoload {
	return &Autoload{
		address:      address,
		board:        board,
		ports:        ports,
		associations: associations,
	}
}

// BuildStructure returns the single chassis with its blade and ports.
// Ports are ordered by numeric logical id.
func (a *Autoload) BuildStructure() []*model.Chassis {
	chassis := model.NewChassis(chassisID, a.address, chassisModel, a.board["chassis-serial"])
	chassis.ModelName = a.board["model"]
	chassis.OSVersion = a.board["version"]

	blade := model.NewBlade(bladeID, bladeModel, chassis)

	ids := make([]string, 0, len(a.ports))
	for id := range a.ports {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessNumeric(ids[i], ids[j]) })

	byID := make(map[string]*model.Port, len(ids))
	for _, id := range ids {
		rec := a.ports[id]
		port := model.NewPort(id, rec.PhysID)
		port.ModelName = a.board["model"] + " Port"
		port.Speed = rec.Speed
		port.SetParent(blade)
		byID[id] = port
	}

	for slaveID, masterID := range a.associations {
		slave, master := byID[slaveID], byID[masterID]
		if slave != nil && master != nil {
			slave.AddMapping(master)
		}
	}

	return []*model.Chassis{chassis}
}

func lessNumeric(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}
