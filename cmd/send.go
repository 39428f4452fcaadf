package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/canister/internal/command"
	"github.com/smazurov/canister/internal/server"
)

// DefaultSocket is the control socket path the service listens on by default.
const DefaultSocket = "/run/canister.sock"

// CreateSendCmd creates the send command.
func CreateSendCmd() *cobra.Command {
	var network string
	var address string
	var timeout time.Duration
	var rawJSON bool

	cmd := &cobra.Command{
		Use:   "send <command> [args...]",
		Short: "Send a command to a running instance",
		Long: `Connects to the control link of a running instance, sends one command and prints the reply. ` +
			`Arguments that are valid JSON (numbers, booleans, arrays) are sent as such, everything else as strings.`,
		Example: `  canister send playAnimation meltdown
  canister send fill ff0000
  canister send setVolume 40`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := command.Request{Command: args[0]}
			for _, arg := range args[1:] {
				req.Args = append(req.Args, command.TextArg(arg))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := server.Dial(ctx, network, address, timeout)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Send(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rawJSON {
				enc := json.NewEncoder(out)
				if err := enc.Encode(resp); err != nil {
					return err
				}
			} else if resp.OK {
				fmt.Fprintln(out, resp.Result)
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Code, resp.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", server.NetworkUnix, "Control link network (unix, tcp)")
	cmd.Flags().StringVarP(&address, "address", "a", DefaultSocket, "Control link address")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Connect and reply timeout")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print the raw JSON response")

	return cmd
}
