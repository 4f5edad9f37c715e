package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	virtualwire "github.com/nanoncore/nano-virtualwire"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show chassis, ports and current mappings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			resp, err := d.GetResourceDescription(cmd.Context(), address)
			if err != nil {
				return err
			}
			for _, chassis := range resp.Resources {
				fmt.Printf("Chassis %s: %s %s (serial %s, version %s)\n",
					chassis.Address, chassis.ModelType, chassis.ModelName, chassis.SerialNumber, chassis.OSVersion)

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ADDRESS\tNAME\tSPEED\tMAPPED FROM")
				for _, blade := range chassis.Blades {
					for _, port := range blade.Ports {
						mapped := "-"
						if port.MappedTo != nil {
							mapped = port.MappedTo.Address()
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", port.Address(), port.Name, port.Speed, mapped)
					}
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read or write the state id token",
}

var stateGetCmd = &cobra.Command{
	Use:  "get",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			resp, err := d.GetStateID(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(resp.StateID)
			return nil
		})
	},
}

var stateSetCmd = &cobra.Command{
	Use:  "set <state-id>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			return d.SetStateID(cmd.Context(), args[0])
		})
	},
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Create or remove port associations",
	Long: `Create or remove port associations.

Ports are resource addresses; only the last path segment is used.

Examples:
  vwctl -a 10.0.0.5 map bidi 10.0.0.5/1/3 10.0.0.5/1/7
  vwctl -a 10.0.0.5 map uni 3 7 8
  vwctl -a 10.0.0.5 map tap 3 5 6
  vwctl -a 10.0.0.5 map clear-to 3 5
  vwctl -a 10.0.0.5 map clear 3 7`,
}

var mapBidiCmd = &cobra.Command{
	Use:  "bidi <port-a> <port-b>",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			return d.MapBidi(cmd.Context(), args[0], args[1])
		})
	},
}

var mapUniCmd = &cobra.Command{
	Use:  "uni <src-port> <dst-port>...",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			return d.MapUni(cmd.Context(), args[0], args[1:])
		})
	},
}

var mapClearCmd = &cobra.Command{
	Use:  "clear <port>...",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			return d.MapClear(cmd.Context(), args)
		})
	},
}

var mapClearToCmd = &cobra.Command{
	Use:  "clear-to <src-port> <dst-port>...",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			return d.MapClearTo(cmd.Context(), args[0], args[1:])
		})
	},
}

var mapTapCmd = &cobra.Command{
	Use:  "tap <src-port> <monitor-port>...",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			return d.MapTap(cmd.Context(), args[0], args[1:])
		})
	},
}

var attrCmd = &cobra.Command{
	Use:   "attr",
	Short: "Read or write resource attributes",
}

var attrGetCmd = &cobra.Command{
	Use:  "get <address> <attribute>",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			resp, err := d.GetAttributeValue(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(resp.Value)
			return nil
		})
	},
}

var attrSetCmd = &cobra.Command{
	Use:  "set <address> <attribute> <value>",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd.Context(), func(d virtualwire.Driver) error {
			return d.SetAttributeValue(cmd.Context(), args[0], args[1], args[2])
		})
	},
}

func init() {
	stateCmd.AddCommand(stateGetCmd, stateSetCmd)
	mapCmd.AddCommand(mapBidiCmd, mapUniCmd, mapClearCmd, mapClearToCmd, mapTapCmd)
	attrCmd.AddCommand(attrGetCmd, attrSetCmd)
}
