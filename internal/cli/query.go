package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

func newQueryCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send a query to the router and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a2aClient, err := client.NewA2AClient(cfg.Router.URL)
			if err != nil {
				return err
			}

			msg := protocol.NewMessage(protocol.MessageRoleUser, []protocol.Part{
				protocol.NewTextPart(message),
			})
			task, err := a2aClient.SendTasks(cmd.Context(), protocol.SendTaskParams{
				ID:      "query-" + uuid.NewString(),
				Message: msg,
			})
			if err != nil {
				return err
			}
			fmt.Printf("task %s: %s\n", task.ID, task.Status.State)

			for !terminalState(task.Status.State) {
				time.Sleep(cfg.Router.PollInterval.Std())
				task, err = a2aClient.GetTasks(cmd.Context(), protocol.TaskQueryParams{ID: task.ID})
				if err != nil {
					return err
				}
			}

			fmt.Printf("final state: %s\n\n", task.Status.State)
			if task.Status.Message != nil {
				for _, part := range task.Status.Message.Parts {
					if text, ok := part.(protocol.TextPart); ok {
						fmt.Println(text.Text)
					}
				}
			}
			for _, artifact := range task.Artifacts {
				name := ""
				if artifact.Name != nil {
					name = *artifact.Name
				}
				fmt.Printf("--- %s ---\n", name)
				for _, part := range artifact.Parts {
					if text, ok := part.(protocol.TextPart); ok {
						fmt.Println(text.Text)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "query text to route")
	cmd.MarkFlagRequired("message")
	return cmd
}

func terminalState(state protocol.TaskState) bool {
	switch state {
	case protocol.TaskStateCompleted, protocol.TaskStateFailed, protocol.TaskStateCanceled:
		return true
	}
	return false
}
