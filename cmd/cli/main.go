package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/absmach/cleanroom"
	"github.com/absmach/cleanroom/cli"
	"github.com/absmach/cleanroom/dashboard/middleware"
	"github.com/absmach/cleanroom/dashboardd"
	"github.com/spf13/cobra"
)

const defConfigPath = "dcr.toml"

func main() {
	var (
		configPath = defConfigPath
		cfg        cleanroom.Config
		comps      *dashboardd.Components
	)

	rootCmd := &cobra.Command{
		Use:   "dcr-cli",
		Short: "Clean room dashboard CLI",
		Long:  `Clean room dashboard CLI manages federated workspaces, uploads and analyses.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cleanroom.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = *c

			if cmd.Annotations["standalone"] == "true" {
				return nil
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			comps, err = dashboardd.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			cli.SetService(middleware.Logging(logger, comps.Service))

			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if comps == nil {
				return nil
			}

			return comps.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defConfigPath, "Config file")

	initCmd := cli.NewInitCmd(&configPath)
	serveCmd := dashboardd.NewServeCmd(&cfg)
	for _, cmd := range []*cobra.Command{initCmd, serveCmd} {
		cmd.Annotations = map[string]string{"standalone": "true"}
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cli.NewStateCmd())
	rootCmd.AddCommand(cli.NewFederationCmd())
	rootCmd.AddCommand(cli.NewUploadCmd())
	rootCmd.AddCommand(cli.NewProjectCmd())
	rootCmd.AddCommand(cli.NewExploreCmd())
	rootCmd.AddCommand(cli.NewOverviewCmd())
	rootCmd.AddCommand(cli.NewModelCmd())
	rootCmd.AddCommand(cli.NewPredictCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
