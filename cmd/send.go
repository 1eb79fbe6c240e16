package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/client"
)

var (
	agentURLFlag string
	streamFlag   bool
	taskFlag     bool

	sendCmd = &cobra.Command{
		Use:   "send [message]",
		Short: "Send a message to an A2A agent",
		Long:  longSend,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := client.NewClient(agentURLFlag)
			ctx := cmd.Context()
			text := args[0]

			if streamFlag {
				return streamSend(cmd, agent, text)
			}

			if taskFlag {
				response, err := agent.SendMessage(ctx, a2a.MessageSendParams{
					Message: *a2a.NewTextMessage(a2a.RoleUser, text),
				})
				if err != nil {
					return err
				}
				cmd.Println(response.Task.String())
				return nil
			}

			response, err := agent.SendText(ctx, text)
			if err != nil {
				return err
			}

			if response.Message != nil {
				cmd.Println(response.Message.String())
			} else if response.Task != nil {
				cmd.Println(response.Task.String())
			}
			return nil
		},
	}

	cardCmd = &cobra.Command{
		Use:   "card",
		Short: "Fetch and display an agent's card",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := client.NewClient(agentURLFlag)

			card, err := agent.AgentCard(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Println(card.String())
			return nil
		},
	}
)

// streamSend opens a message/stream and prints events as they arrive.
func streamSend(cmd *cobra.Command, agent *client.Client, text string) error {
	ctx := cmd.Context()

	results, errs := agent.StreamMessage(ctx, a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, text),
	})

	for results != nil || errs != nil {
		select {
		case result, open := <-results:
			if !open {
				results = nil
				continue
			}
			printStreamingResult(cmd, result)
		case err, open := <-errs:
			if !open {
				errs = nil
				continue
			}
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func printStreamingResult(cmd *cobra.Command, result a2a.StreamingResult) {
	switch {
	case result.Task != nil:
		cmd.Println(result.Task.String())
	case result.Status != nil:
		cmd.Println(fmt.Sprintf(
			"task %s is now %s", result.Status.TaskID, result.Status.Status.State,
		))
	case result.Artifact != nil:
		name := result.Artifact.Artifact.ID
		if result.Artifact.Artifact.Name != nil {
			name = *result.Artifact.Artifact.Name
		}
		cmd.Println(fmt.Sprintf(
			"task %s produced artifact %s", result.Artifact.TaskID, name,
		))
	case result.Message != nil:
		cmd.Println(result.Message.String())
	default:
		log.Warn("unrecognized streaming event")
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(cardCmd)

	for _, command := range []*cobra.Command{sendCmd, cardCmd} {
		command.Flags().StringVarP(&agentURLFlag, "url", "u", "http://localhost:3210", "Base URL of the agent")
	}

	sendCmd.Flags().BoolVarP(&streamFlag, "stream", "s", false, "Stream task events over SSE")
	sendCmd.Flags().BoolVarP(&taskFlag, "task", "t", false, "Submit as a background task instead of an immediate reply")
}

var longSend = `
Send a message to an A2A agent and print the reply.

Examples:
  # Ask for an immediate reply
  ranch send "hello" --url http://localhost:3210

  # Submit a background task and print its handle
  ranch send "summarize this" --task

  # Watch the task progress over SSE
  ranch send "summarize this" --stream
`
