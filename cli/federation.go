package cli

import (
	"errors"
	"os"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/cleanroom/federation"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var errMissingPassword = errors.New("invite password is required")

var (
	natsHosts    string
	syncSchedule string
	password     string
	inviteFile   string
)

func NewFederationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "federation [create|join|invite|reset|sync]",
		Short: "Federation lifecycle",
		Long:  `Create, join, invite to, reset and synchronize a federated workspace.`,
	}

	createCmd := &cobra.Command{
		Use:   "create [workspace]",
		Short: "Create federation",
		Long: `Create a federation for a workspace. A random workspace name is
generated when none is given.

Examples:
  dcr-cli federation create clean-room-1 --schedule h1`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			pid := namegenerator.NewGenerator().Generate()
			if len(args) == 1 {
				pid = args[0]
			}

			st, err := svc.CreateFederation(cmd.Context(), federation.CreateRequest{
				WorkspaceID:  pid,
				Transport:    federation.Transport{NATSHosts: natsHosts},
				SyncSchedule: syncSchedule,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}
	createCmd.Flags().StringVar(&natsHosts, "nats-hosts", federation.DefaultNATSHosts, "NATS hosts of the federation transport")
	createCmd.Flags().StringVarP(&syncSchedule, "schedule", "s", federation.DefaultSyncSchedule, "Sync schedule (m1, m5, h1, h6, d1)")

	joinCmd := &cobra.Command{
		Use:   "join <workspace> [invite]",
		Short: "Join federation",
		Long:  `Join a federation with an invite given inline or with --invite-file.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 || len(args) > 2 || (len(args) == 1 && inviteFile == "") {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			invite := ""
			if len(args) == 2 {
				invite = args[1]
			}
			if inviteFile != "" {
				data, err := os.ReadFile(inviteFile)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				invite = string(data)
			}

			st, err := svc.JoinFederation(cmd.Context(), federation.JoinRequest{
				WorkspaceID: args[0],
				InviteToken: invite,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}
	joinCmd.Flags().StringVarP(&inviteFile, "invite-file", "f", "", "File holding the invite")

	inviteCmd := &cobra.Command{
		Use:   "invite [workspace]",
		Short: "Generate invite",
		Long:  `Generate an invite for the given or current workspace. The password is prompted for when not set.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			st, err := svc.State(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			pid := st.CurrentWorkspaceID
			if len(args) == 1 {
				pid = args[0]
			}

			pass := password
			if pass == "" {
				if err := huh.NewInput().
					Title("Invite password").
					EchoMode(huh.EchoModePassword).
					Value(&pass).
					Run(); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			}
			if pass == "" {
				logErrorCmd(*cmd, errMissingPassword)

				return
			}

			invite, err := svc.GenerateInvite(cmd.Context(), pid, pass)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, invite)
		},
	}
	inviteCmd.Flags().StringVarP(&password, "password", "p", "", "Invite password")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset federation",
		Long:  `Reset a failed federation back to idle.`,
		Run: func(cmd *cobra.Command, _ []string) {
			st, err := svc.ResetFederation(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}

	cmd.AddCommand(createCmd)
	cmd.AddCommand(joinCmd)
	cmd.AddCommand(inviteCmd)
	cmd.AddCommand(resetCmd)
	cmd.AddCommand(newSyncCmd())

	return cmd
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [start|stop|stats]",
		Short: "Workspace synchronization",
		Long:  `Start, stop and inspect synchronization of the active workspace.`,
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start sync",
		Long:  `Start synchronization.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := svc.StartSync(cmd.Context()); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop sync",
		Long:  `Stop synchronization.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := svc.StopSync(cmd.Context()); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Sync statistics",
		Long:  `Fetch synchronization statistics of the active workspace.`,
		Run: func(cmd *cobra.Command, _ []string) {
			stats, err := svc.SyncStats(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, stats)
		},
	}

	cmd.AddCommand(startCmd)
	cmd.AddCommand(stopCmd)
	cmd.AddCommand(statsCmd)

	return cmd
}
