// Package cli wires every supportmesh process into one binary: the tool
// server, the two specialist agents, the routing orchestrator and a small
// client for talking to the router.
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/supportmesh/supportmesh/config"
	"github.com/supportmesh/supportmesh/log"
)

var (
	cfgFile string

	// loaded by the root command before any subcommand runs
	cfg config.Config
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supportmesh",
		Short: "Multi-agent customer service mesh",
		Long: "Supportmesh runs a customer service coordination mesh: a sqlite-backed\n" +
			"tool server, a customer data specialist, a support specialist and a\n" +
			"routing orchestrator, each exposed over open agent protocols.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			log.SetLevel(cfg.LogLevel)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "supportmesh.yaml", "config file")

	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newDataAgentCmd())
	cmd.AddCommand(newSupportAgentCmd())
	cmd.AddCommand(newRouterCmd())
	cmd.AddCommand(newQueryCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Errorf("%v", err)
		return err
	}
	return nil
}

// waitForSignal blocks until the process receives SIGINT or SIGTERM.
func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info("shutting down")
}
