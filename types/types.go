package types

import (
	"context"
	"time"

	"github.com/nanoncore/nano-virtualwire/model"
)

// Protocol represents the southbound protocol type
type Protocol string

const (
	ProtocolCLI Protocol = "cli"
)

// Vendor represents the network equipment vendor
type Vendor string

const (
	VendorPluribus Vendor = "pluribus"
	VendorMock     Vendor = "mock" // In-memory Pluribus simulator
)

// Session types accepted in EquipmentConfig.SessionTypes
const (
	SessionTypeSSH    = "SSH"
	SessionTypeTelnet = "TELNET"
)

// EquipmentConfig contains configuration for a virtual-wire switch
type EquipmentConfig struct {
	// Name is a unique identifier for this equipment
	Name string

	// Vendor is the equipment vendor
	Vendor Vendor

	// Address is the management IP/hostname. Login overrides it.
	Address string

	// Username for authentication. Login overrides it.
	Username string

	// Password for authentication. Login overrides it.
	Password string

	// SessionTypes lists the transports to try, in order (SSH, TELNET)
	SessionTypes []string

	// Ports overrides the default port per session type
	Ports map[string]int

	// Timeout bounds every prompt wait
	Timeout time.Duration

	// ConnectTimeout bounds transport dial and initial prompt
	ConnectTimeout time.Duration

	// Metadata contains per-device overrides (cli_type, cli_port_ssh, ...)
	Metadata map[string]string
}

// Driver is the fixed command surface of a layer-one virtual-wire driver.
// Port arguments are slash-delimited resource addresses; only the last
// segment is used as the physical port identifier.
type Driver interface {
	// Login stores session attributes and validates them against the device
	Login(ctx context.Context, address, username, password string) error

	// GetStateID returns the synchronization token stored on the device
	GetStateID(ctx context.Context) (*StateIDResponse, error)

	// SetStateID stores a synchronization token on the device
	SetStateID(ctx context.Context, stateID string) error

	// GetResourceDescription builds the chassis/blade/port tree
	GetResourceDescription(ctx context.Context, address string) (*ResourceDescriptionResponse, error)

	// MapBidi creates a bidirectional association between two ports
	MapBidi(ctx context.Context, srcPort, dstPort string) error

	// MapUni creates one unidirectional association per destination port
	MapUni(ctx context.Context, srcPort string, dstPorts []string) error

	// MapClear removes the associations owning the given ports
	MapClear(ctx context.Context, ports []string) error

	// MapClearTo removes the association or monitor ports towards dstPorts
	MapClearTo(ctx context.Context, srcPort string, dstPorts []string) error

	// MapTap adds monitor ports to the association owning srcPort
	MapTap(ctx context.Context, srcPort string, dstPorts []string) error

	// GetAttributeValue reads a resource attribute
	GetAttributeValue(ctx context.Context, address, attributeName string) (*AttributeValueResponse, error)

	// SetAttributeValue writes a resource attribute
	SetAttributeValue(ctx context.Context, address, attributeName, attributeValue string) error

	// SetSpeedManual is deprecated and always fails
	SetSpeedManual(ctx context.Context, srcPort, dstPort, speed, duplex string) error

	// Close releases pooled sessions
	Close() error
}

// StateIDResponse carries the device synchronization token
type StateIDResponse struct {
	StateID string
}

// ResourceDescriptionResponse carries the autoload resource tree
type ResourceDescriptionResponse struct {
	Resources []*model.Chassis
}

// AttributeValueResponse carries a single attribute value
type AttributeValueResponse struct {
	Value string
}
