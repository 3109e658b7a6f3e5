package dashboardd

import (
	"context"

	"github.com/absmach/cleanroom"
	"github.com/absmach/supermq/pkg/server"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewServeCmd runs the API server with the configuration cfg points to once
// the command executes.
func NewServeCmd(cfg *cleanroom.Config) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start dashboard API",
		Long:  `Start the dashboard HTTP API and the sync stats poller.`,
		Run: func(cmd *cobra.Command, _ []string) {
			scfg := Config{
				Config:     *cfg,
				InstanceID: uuid.NewString(),
				Server: server.Config{
					Port: port,
				},
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			if err := Start(ctx, cancel, scfg); err != nil {
				cmd.PrintErrf("failed to start dashboard: %s", err.Error())
			}
			cancel()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", DefHTTPPort, "HTTP port")

	return cmd
}
