package cli

import (
	"github.com/spf13/cobra"

	"github.com/supportmesh/supportmesh/agent/router"
)

func newRouterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "router",
		Short: "Run the routing orchestrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := router.New(cmd.Context(), router.Options{
				URL:             cfg.Router.URL,
				Specialists:     cfg.Router.Specialists,
				SubTaskDeadline: cfg.Router.SubTaskDeadline.Std(),
				PollInterval:    cfg.Router.PollInterval.Std(),
			})
			if err != nil {
				return err
			}
			return runTaskServer(r.Card(), cfg.Router.Listen, router.NewProcessor(r))
		},
	}
}
