package virtualwire

// Re-export types from the types sub-package so callers can use
// virtualwire.Driver, virtualwire.EquipmentConfig, etc.

import (
	"github.com/nanoncore/nano-virtualwire/types"
)

// Type aliases
type (
	Protocol                    = types.Protocol
	Vendor                      = types.Vendor
	EquipmentConfig             = types.EquipmentConfig
	Driver                      = types.Driver
	StateIDResponse             = types.StateIDResponse
	ResourceDescriptionResponse = types.ResourceDescriptionResponse
	AttributeValueResponse      = types.AttributeValueResponse
)

// Re-export constants
const (
	ProtocolCLI = types.ProtocolCLI

	VendorPluribus = types.VendorPluribus
	VendorMock     = types.VendorMock

	SessionTypeSSH    = types.SessionTypeSSH
	SessionTypeTelnet = types.SessionTypeTelnet
)
