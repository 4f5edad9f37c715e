package pluribus

import "github.com/nanoncore/nano-virtualwire/drivers/cli"

// Autoload
var (
	switchInfoTemplate = cli.NewCommandTemplate(
		"switch-info-show format model,chassis-serial", genericErrorMap)
	switchSetupTemplate = cli.NewCommandTemplate(
		"switch-setup-show format switch-name", genericErrorMap)
	softwareVersionTemplate = cli.NewCommandTemplate(
		"software-show", genericErrorMap)
	portShowTemplate = cli.NewCommandTemplate(
		`port-config-show format port,speed,autoneg parsable-delim ":"`, genericErrorMap)
	physPortShowTemplate = cli.NewCommandTemplate(
		`bezel-portmap-show format port,bezel-intf parsable-delim ":"`, genericErrorMap)
	autoloadAssociationsTemplate = cli.NewCommandTemplate(
		`port-association-show format master-ports,slave-ports,bidir, parsable-delim ":"`, genericErrorMap)
)

// System
var (
	getStateIDTemplate = cli.NewCommandTemplate(
		"switch-setup-show format motd", genericErrorMap)
	setStateIDTemplate = cli.NewCommandTemplate(
		"switch-setup-modify motd {state_id}", genericErrorMap)
	autoNegOnTemplate = cli.NewCommandTemplate(
		"port-config-modify port {port_id} autoneg", genericErrorMap)
	autoNegOffTemplate = cli.NewCommandTemplate(
		"port-config-modify port {port_id} no-autoneg", genericErrorMap)
	systemPhysToLogicalTemplate = cli.NewCommandTemplate(
		`bezel-portmap-show format bezel-intf,port parsable-delim ":"`, genericErrorMap)
)

// Mapping
var (
	associationsTemplate = cli.NewCommandTemplate(
		`port-association-show format master-ports,slave-ports,name,bidir,monitor-ports parsable-delim ":"`, mappingErrorMap)
	mapUniTemplate = cli.NewCommandTemplate(
		"port-association-create name {name} master-ports {master_ports} slave-ports {slave_ports} virtual-wire no-bidir", mappingErrorMap)
	mapBidiTemplate = cli.NewCommandTemplate(
		"port-association-create name {name} master-ports {master_ports} slave-ports {slave_ports} virtual-wire bidir", mappingErrorMap)
	mapClearTemplate = cli.NewCommandTemplate(
		"port-association-delete name {name}", mappingErrorMap)
	physToLogicalTemplate = cli.NewCommandTemplate(
		`bezel-portmap-show format bezel-intf,port parsable-delim ":"`, mappingErrorMap)
	modifyMonitorPortsTemplate = cli.NewCommandTemplate(
		`port-association-modify name {name} monitor-ports "{ports}" virtual-wire`, mappingErrorMap)
	isEnabledTemplate = cli.NewCommandTemplate(
		`port-config-show port {port} format intf,enable parsable-delim ":"`, mappingErrorMap)
)
