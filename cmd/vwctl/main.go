// Command vwctl drives a Pluribus virtual-wire switch from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	virtualwire "github.com/nanoncore/nano-virtualwire"
	"github.com/nanoncore/nano-virtualwire/internal/config"
	"github.com/nanoncore/nano-virtualwire/internal/logger"
	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

var (
	address    string
	username   string
	password   string
	configPath string
	useMock    bool
	cliTypes   []string
)

var rootCmd = &cobra.Command{
	Use:           "vwctl",
	Short:         "Manage port associations on a Pluribus virtual-wire switch",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&address, "address", "a", "", "switch management address")
	flags.StringVarP(&username, "username", "u", "", "login user")
	flags.StringVarP(&password, "password", "p", "", "login password")
	flags.StringVarP(&configPath, "config", "c", "", "config file (default ./vw.yaml)")
	flags.BoolVar(&useMock, "mock", false, "talk to an in-memory simulated switch")
	flags.StringSliceVar(&cliTypes, "cli-type", nil, "session types to try, e.g. SSH,TELNET")

	rootCmd.AddCommand(describeCmd, stateCmd, mapCmd, attrCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withDriver loads configuration, logs in and hands a ready driver to fn
func withDriver(ctx context.Context, fn func(d virtualwire.Driver) error) error {
	if address == "" {
		return fmt.Errorf("address required: use -a <address> flag")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}

	metadata := map[string]string{}
	if len(cliTypes) > 0 {
		metadata[common.MetadataCLIType] = strings.ToUpper(strings.Join(cliTypes, ","))
	}

	vendor := virtualwire.VendorPluribus
	if useMock {
		vendor = virtualwire.VendorMock
	}
	equipment := cfg.Equipment(vendor, metadata)
	equipment.Name = address
	equipment.Address = address
	equipment.Username = username
	equipment.Password = password

	d, err := virtualwire.NewDriver(vendor, virtualwire.ProtocolCLI, equipment)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Login(ctx, address, username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return fn(d)
}
