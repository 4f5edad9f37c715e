package virtualwire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoncore/nano-virtualwire/drivers/mock"
)

func TestNewDriver(t *testing.T) {
	cfg := &EquipmentConfig{Name: "vw1", Timeout: time.Second}

	tests := []struct {
		name     string
		vendor   Vendor
		protocol Protocol
		wantErr  bool
	}{
		{"pluribus_default_protocol", VendorPluribus, "", false},
		{"pluribus_cli", VendorPluribus, ProtocolCLI, false},
		{"mock", VendorMock, ProtocolCLI, false},
		{"unknown_vendor", Vendor("arista"), ProtocolCLI, true},
		{"unsupported_protocol", VendorPluribus, Protocol("netconf"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDriver(tt.vendor, tt.protocol, cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, d.Close())
		})
	}

	_, err := NewDriver(VendorPluribus, ProtocolCLI, nil)
	assert.Error(t, err)
}

func TestMockVendorEndToEnd(t *testing.T) {
	d, err := NewDriver(VendorMock, "", &EquipmentConfig{Name: "sim", Timeout: time.Second})
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	require.NoError(t, d.Login(ctx, "10.0.0.5", "admin", "admin"))
	require.NoError(t, d.MapBidi(ctx, "10.0.0.5/1/1", "10.0.0.5/1/2"))

	resp, err := d.GetResourceDescription(ctx, "10.0.0.5")
	require.NoError(t, err)
	ports := resp.Resources[0].Blades[0].Ports
	require.Len(t, ports, MockPortCount)
	require.NotNil(t, ports[0].MappedTo)
	assert.Equal(t, "2", ports[0].MappedTo.ID)
}

func TestNewMockDriver(t *testing.T) {
	dev := mock.NewDevice(4)
	d, err := NewMockDriver(&EquipmentConfig{Name: "sim", Timeout: time.Second}, dev)
	require.NoError(t, err)
	defer d.Close()

	assert.Error(t, d.SetStateID(context.Background(), "x"), "login is required")
	require.NoError(t, d.Login(context.Background(), "10.0.0.5", "admin", "admin"))
	require.NoError(t, d.SetStateID(context.Background(), "abc"))
	assert.Equal(t, "abc", dev.Motd)
}

func TestVendorCapabilities(t *testing.T) {
	assert.ElementsMatch(t, []Vendor{VendorPluribus, VendorMock}, GetSupportedVendors())

	caps, ok := GetVendorCapabilities(VendorPluribus)
	require.True(t, ok)
	assert.Equal(t, ProtocolCLI, caps.PrimaryProtocol)
	assert.Contains(t, caps.SessionTypes, SessionTypeTelnet)

	_, ok = GetVendorCapabilities(Vendor("arista"))
	assert.False(t, ok)
}
