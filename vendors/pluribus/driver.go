package pluribus

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nanoncore/nano-virtualwire/drivers/cli"
	"github.com/nanoncore/nano-virtualwire/internal/logger"
	"github.com/nanoncore/nano-virtualwire/types"
	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

const (
	attrSerialNumber    = "Serial Number"
	attrAutoNegotiation = "Auto Negotiation"
)

// Driver implements types.Driver for Pluribus virtual-wire switches.
// Every command builds fresh action objects inside one session checkout.
type Driver struct {
	config  *types.EquipmentConfig
	handler *cli.Handler
	log     *logrus.Entry
}

// NewDriver creates a driver. A nil dialer uses SSH/Telnet transports.
func NewDriver(config *types.EquipmentConfig, dialer cli.Dialer) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if dialer == nil {
		dialer = cli.NewTransportDialer()
	}

	log := logger.WithFields(logrus.Fields{"vendor": "pluribus", "equipment": config.Name})

	creds := &cli.Credentials{}
	handler, err := cli.NewHandler(cli.HandlerConfig{
		Graph:          NewModeGraph(creds),
		DefaultMode:    DefaultMode,
		Credentials:    creds,
		Dialer:         dialer,
		SessionTypes:   common.SessionTypes(config.Metadata, config.SessionTypes),
		Ports:          common.SessionPorts(config.Metadata, config.Ports),
		Timeout:        config.Timeout,
		ConnectTimeout: config.ConnectTimeout,
		PoolSize:       1,
		Logger:         log.WithField("component", "cli"),
	})
	if err != nil {
		return nil, err
	}

	return &Driver{config: config, handler: handler, log: log}, nil
}

var _ types.Driver = (*Driver)(nil)

// Login stores session attributes and probes the board table
func (d *Driver) Login(ctx context.Context, address, username, password string) error {
	if err := d.handler.DefineSessionAttributes(address, username, password); err != nil {
		return err
	}
	return d.handler.DefaultMode(ctx, func(ctx context.Context, s cli.CommandSender) error {
		board, err := NewAutoloadActions(s).BoardTable(ctx)
		if err != nil {
			return err
		}
		d.log.Info(board)
		return nil
	})
}

// GetStateID reads the token stored in the motd
func (d *Driver) GetStateID(ctx context.Context) (*types.StateIDResponse, error) {
	var resp *types.StateIDResponse
	err := d.handler.DefaultMode(ctx, func(ctx context.Context, s cli.CommandSender) error {
		id, err := NewSystemActions(s).GetStateID(ctx)
		if err != nil {
			return err
		}
		resp = &types.StateIDResponse{StateID: id}
		return nil
	})
	return resp, err
}

// SetStateID writes the token into the motd
func (d *Driver) SetStateID(ctx context.Context, stateID string) error {
	return d.handler.DefaultMode(ctx, func(ctx context.Context, s cli.CommandSender) error {
		return NewSystemActions(s).SetStateID(ctx, stateID)
	})
}

// GetResourceDescription reads inventory tables and builds the tree
func (d *Driver) GetResourceDescription(ctx context.Context, address string) (*types.ResourceDescriptionResponse, error) {
	d.log.Infof("GetResourceDescription for: %s", address)

	var resp *types.ResourceDescriptionResponse
	err := d.handler.DefaultMode(ctx, func(ctx context.Context, s cli.CommandSender) error {
		actions := NewAutoloadActions(s)
		board, err := actions.BoardTable(ctx)
		if err != nil {
			return err
		}
		ports, err := actions.PortsTable(ctx)
		if err != nil {
			return err
		}
		associations, err := actions.AssociationsTable(ctx)
		if err != nil {
			return err
		}
		resp = &types.ResourceDescriptionResponse{
			Resources: NewAutoload(address, board, ports, associations).BuildStructure(),
		}
		return nil
	})
	return resp, err
}

// MapBidi creates a bidirectional association
func (d *Driver) MapBidi(ctx context.Context, srcPort, dstPort string) error {
	d.log.Infof("MapBidi: SrcPort: %s, DstPort: %s", srcPort, dstPort)
	return d.mapping(ctx, func(ctx context.Context, m *MappingActions) error {
		return m.MapBidi(ctx, portID(srcPort), portID(dstPort))
	})
}

// MapUni creates one unidirectional association per destination
func (d *Driver) MapUni(ctx context.Context, srcPort string, dstPorts []string) error {
	d.log.Infof("MapUni: SrcPort: %s, DstPort: %s", srcPort, strings.Join(dstPorts, ", "))
	return d.mapping(ctx, func(ctx context.Context, m *MappingActions) error {
		return m.MapUni(ctx, portID(srcPort), portIDs(dstPorts))
	})
}

// MapClear removes associations ending on ports
func (d *Driver) MapClear(ctx context.Context, ports []string) error {
	d.log.Infof("MapClear: Ports: %s", strings.Join(ports, ", "))
	return d.mapping(ctx, func(ctx context.Context, m *MappingActions) error {
		return m.MapClear(ctx, portIDs(ports))
	})
}

// MapClearTo removes the connection from srcPort towards dstPorts
func (d *Driver) MapClearTo(ctx context.Context, srcPort string, dstPorts []string) error {
	d.log.Infof("MapClearTo: SrcPort: %s, DstPorts: %s", srcPort, strings.Join(dstPorts, ", "))
	return d.mapping(ctx, func(ctx context.Context, m *MappingActions) error {
		return m.MapClearTo(ctx, portID(srcPort), portIDs(dstPorts))
	})
}

// MapTap adds monitor ports to the association of srcPort
func (d *Driver) MapTap(ctx context.Context, srcPort string, dstPorts []string) error {
	d.log.Infof("MapTap: SrcPort: %s, DstPorts: %s", srcPort, strings.Join(dstPorts, ", "))
	return d.mapping(ctx, func(ctx context.Context, m *MappingActions) error {
		return m.MapTap(ctx, portID(srcPort), portIDs(dstPorts))
	})
}

// GetAttributeValue supports "Serial Number" only
func (d *Driver) GetAttributeValue(ctx context.Context, address, attributeName string) (*types.AttributeValueResponse, error) {
	if attributeName != attrSerialNumber {
		return nil, &types.UnsupportedError{Msg: "GetAttributeValue command is not supported"}
	}
	if strings.Contains(address, "/") {
		return &types.AttributeValueResponse{Value: "NA"}, nil
	}

	var resp *types.AttributeValueResponse
	err := d.handler.DefaultMode(ctx, func(ctx context.Context, s cli.CommandSender) error {
		board, err := NewAutoloadActions(s).BoardTable(ctx)
		if err != nil {
			return err
		}
		resp = &types.AttributeValueResponse{Value: board["chassis-serial"]}
		return nil
	})
	return resp, err
}

// SetAttributeValue supports "Auto Negotiation" on ports only
func (d *Driver) SetAttributeValue(ctx context.Context, address, attributeName, attributeValue string) error {
	if attributeName != attrAutoNegotiation {
		return &types.UnsupportedError{Msg: fmt.Sprintf("SetAttributeValue for address %s is not supported", address)}
	}
	return d.handler.DefaultMode(ctx, func(ctx context.Context, s cli.CommandSender) error {
		return NewSystemActions(s).SetAutoNegotiation(ctx, portID(address), attributeValue)
	})
}

// SetSpeedManual is deprecated
func (d *Driver) SetSpeedManual(ctx context.Context, srcPort, dstPort, speed, duplex string) error {
	return &types.UnsupportedError{Msg: "SetSpeedManual command is deprecated and not supported"}
}

// Close releases the pooled session
func (d *Driver) Close() error {
	return d.handler.Close()
}

func (d *Driver) mapping(ctx context.Context, fn func(ctx context.Context, m *MappingActions) error) error {
	return d.handler.DefaultMode(ctx, func(ctx context.Context, s cli.CommandSender) error {
		return fn(ctx, NewMappingActions(s))
	})
}

// portID takes the physical port id from a resource address
func portID(address string) string {
	return common.LastSegment(address)
}

func portIDs(addresses []string) []string {
	ids := make([]string, 0, len(addresses))
	for _, a := range addresses {
		ids = append(ids, portID(a))
	}
	return ids
}
