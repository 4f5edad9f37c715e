package virtualwire

import (
	"fmt"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
	"github.com/nanoncore/nano-virtualwire/drivers/mock"
	"github.com/nanoncore/nano-virtualwire/vendors/pluribus"
)

// MockPortCount is the port count of the simulated switch behind VendorMock
const MockPortCount = 16

// CapabilityMatrix defines what each vendor supports
var CapabilityMatrix = map[Vendor]VendorCapabilities{
	VendorPluribus: {
		PrimaryProtocol:    ProtocolCLI,
		SupportedProtocols: []Protocol{ProtocolCLI},
		SessionTypes:       []string{SessionTypeSSH, SessionTypeTelnet},
	},
	VendorMock: {
		PrimaryProtocol:    ProtocolCLI,
		SupportedProtocols: []Protocol{ProtocolCLI},
		SessionTypes:       []string{SessionTypeSSH, SessionTypeTelnet},
	},
}

// VendorCapabilities defines what protocols and transports a vendor supports
type VendorCapabilities struct {
	PrimaryProtocol    Protocol
	SupportedProtocols []Protocol
	SessionTypes       []string
}

// NewDriver creates a virtual-wire driver based on vendor and protocol
func NewDriver(vendor Vendor, protocol Protocol, config *EquipmentConfig) (Driver, error) {
	caps, ok := CapabilityMatrix[vendor]
	if !ok {
		return nil, fmt.Errorf("unsupported vendor: %s", vendor)
	}

	// If protocol not specified, use primary
	if protocol == "" {
		protocol = caps.PrimaryProtocol
	}

	supported := false
	for _, p := range caps.SupportedProtocols {
		if p == protocol {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("vendor %s does not support protocol %s", vendor, protocol)
	}

	var dialer cli.Dialer
	if vendor == VendorMock {
		// Mock vendor talks to an in-memory switch
		dialer = mock.NewDialer(mock.NewDevice(MockPortCount))
	}

	d, err := pluribus.NewDriver(config, dialer)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s driver: %w", protocol, err)
	}
	return d, nil
}

// NewMockDriver creates a Pluribus driver connected to dev
func NewMockDriver(config *EquipmentConfig, dev *mock.Device) (Driver, error) {
	return pluribus.NewDriver(config, mock.NewDialer(dev))
}

// GetSupportedVendors returns a list of all supported vendors
func GetSupportedVendors() []Vendor {
	vendors := make([]Vendor, 0, len(CapabilityMatrix))
	for v := range CapabilityMatrix {
		vendors = append(vendors, v)
	}
	return vendors
}

// GetVendorCapabilities returns the capabilities for a vendor
func GetVendorCapabilities(vendor Vendor) (VendorCapabilities, bool) {
	caps, ok := CapabilityMatrix[vendor]
	return caps, ok
}
