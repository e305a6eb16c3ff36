package cli

import (
	"context"

	"github.com/spf13/cobra"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/store"
	"github.com/supportmesh/supportmesh/tool/registry"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Run the customer data tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			if cfg.Store.Seed {
				if err := st.Seed(cmd.Context()); err != nil {
					return err
				}
			}

			reg := registry.New(st)
			srv := mcp.NewSSEServer("supportmesh-tools", "1.0.0")
			reg.Attach(srv)

			log.Infof("tool server listening on %s (%d tools)", cfg.Tools.Listen, len(reg.List()))
			go srv.Start(cfg.Tools.Listen)

			waitForSignal()
			srv.Shutdown(context.Background())
			return nil
		},
	}
}
