package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/auth"
	"github.com/woidev/ranch/pkg/service"
)

var (
	hostFlag     string
	portFlag     int
	agentKeyFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve an A2A agent",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a2a.NewAgentID(agentKeyFlag)
			if err != nil {
				return err
			}

			profile := a2a.NewAgentProfileFromConfig(agentKeyFlag)
			if profile.Name == "" {
				profile.Name = "Ranch Agent"
			}

			url := viper.GetString("server.url")
			if url == "" {
				url = fmt.Sprintf("http://%s:%d", hostFlag, portFlag)
			}

			transport := a2a.DefaultTransportCapabilities()
			checker := checkerFromConfig()
			if checker != nil {
				transport.AuthSchemes = []string{"bearer"}
			}

			card := a2a.BuildAgentCard(id, url, profile, transport)

			handler := service.NewDefaultHandler(card, nil)
			defer handler.Close()

			var opts []service.Option
			if checker != nil {
				opts = append(opts, service.WithAuth(checker))
			}

			server := service.NewServer(card, handler, opts...)
			addr := fmt.Sprintf("%s:%d", hostFlag, portFlag)

			log.Info("serving agent", "agent", card.Name, "addr", addr, "url", url)
			return server.Start(addr)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 3210, "Port to serve on")
	serveCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")
	serveCmd.Flags().StringVarP(&agentKeyFlag, "agent", "a", "ranch", "Agent profile key in the config file")
}

// checkerFromConfig picks the auth scheme the config enables, if any.
func checkerFromConfig() auth.Checker {
	if token := viper.GetString("auth.bearer_token"); token != "" {
		return auth.BearerAuth{Token: token}
	}
	if key := viper.GetString("auth.api_key"); key != "" {
		return auth.APIKeyAuth{Key: key}
	}
	return nil
}

var longServe = `
Serve an A2A agent behind a JSON-RPC endpoint.

Examples:
  # Serve the default agent profile on port 8080
  ranch serve --port 8080

  # Serve a profile named "support" from the config file
  ranch serve --agent support
`
