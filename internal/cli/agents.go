package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/supportmesh/supportmesh/agent/dataagent"
	"github.com/supportmesh/supportmesh/agent/supportagent"
	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/tool/bridge"
)

func newDataAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "data-agent",
		Short: "Run the customer data specialist",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := bridge.New(cfg.Tools.URL)
			defer tools.Close()

			proc := dataagent.New(tools)
			return runTaskServer(dataagent.Card(cfg.Data.URL), cfg.Data.Listen, proc)
		},
	}
}

func newSupportAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "support-agent",
		Short: "Run the support specialist",
		RunE: func(cmd *cobra.Command, args []string) error {
			proc := supportagent.New()
			return runTaskServer(supportagent.Card(cfg.Support.URL), cfg.Support.Listen, proc)
		},
	}
}

// runTaskServer serves a task processor on the given address until the
// process is interrupted.
func runTaskServer(card server.AgentCard, listen string, proc taskmanager.TaskProcessor) error {
	tm, err := taskmanager.NewMemoryTaskManager(proc)
	if err != nil {
		return err
	}
	srv, err := server.NewA2AServer(card, tm)
	if err != nil {
		return err
	}

	go func() {
		log.Infof("%s listening on %s", card.Name, listen)
		if err := srv.Start(listen); err != nil {
			log.Fatalf("task server: %v", err)
		}
	}()

	waitForSignal()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
