package model

import "fmt"

// Chassis is the root node of a resource tree
type Chassis struct {
	ID           string
	Address      string
	ModelType    string
	ModelName    string
	SerialNumber string
	OSVersion    string
	Blades       []*Blade
}

// Blade is a module inside a chassis
type Blade struct {
	ID        string
	ModelName string
	Parent    *Chassis
	Ports     []*Port
}

// Port is a physical port on a blade.
// ID is the logical port id; HardwareID is the bezel identifier.
type Port struct {
	ID         string
	HardwareID string
	Name       string
	ModelName  string
	Speed      string
	Parent     *Blade
	MappedTo   *Port
}

// NewChassis creates a chassis node
func NewChassis(id, address, modelType, serial string) *Chassis {
	return &Chassis{
		ID:           id,
		Address:      address,
		ModelType:    modelType,
		SerialNumber: serial,
	}
}

// NewBlade creates a blade node and attaches it to the chassis
func NewBlade(id, modelName string, parent *Chassis) *Blade {
	b := &Blade{ID: id, ModelName: modelName}
	b.SetParent(parent)
	return b
}

// SetParent attaches the blade to a chassis
func (b *Blade) SetParent(c *Chassis) {
	b.Parent = c
	if c != nil {
		c.Blades = append(c.Blades, b)
	}
}

// Address returns "<chassis address>/<blade id>"
func (b *Blade) Address() string {
	if b.Parent == nil {
		return b.ID
	}
	return fmt.Sprintf("%s/%s", b.Parent.Address, b.ID)
}

// NewPort creates a port node named after its logical id ("Port 03")
func NewPort(logicalID, hardwareID string) *Port {
	name := logicalID
	if len(name) < 2 {
		name = "0" + name
	}
	return &Port{
		ID:         logicalID,
		HardwareID: hardwareID,
		Name:       "Port " + name,
	}
}

// SetParent attaches the port to a blade
func (p *Port) SetParent(b *Blade) {
	p.Parent = b
	if b != nil {
		b.Ports = append(b.Ports, p)
	}
}

// AddMapping records that this port receives traffic from other
func (p *Port) AddMapping(other *Port) {
	p.MappedTo = other
}

// Address returns "<blade address>/<hardware id>". The hardware id is the
// segment drivers translate back to a logical port.
func (p *Port) Address() string {
	if p.Parent == nil {
		return p.HardwareID
	}
	return fmt.Sprintf("%s/%s", p.Parent.Address(), p.HardwareID)
}
