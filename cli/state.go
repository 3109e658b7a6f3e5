package cli

import (
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/store"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func NewStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state [show|set|reset]",
		Short: "Session state",
		Long:  `Show and change the persisted session state.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show state",
		Long:  `Show the session state.`,
		Run: func(cmd *cobra.Command, _ []string) {
			st, err := svc.State(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}

	var (
		darkMode        bool
		workspace       string
		activeTab       int
		search          string
		processingType  string
		persistData     bool
		enableHistogram bool
		targetList      []string
		conditionList   []string
	)

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Long: `Change settings. Only the flags given are applied.

Examples:
  dcr-cli state set --dark-mode --tab 2
  dcr-cli state set --processing-type gpu --targets age,bmi`,
		Run: func(cmd *cobra.Command, _ []string) {
			flags := cmd.Flags()

			var s dashboard.Settings
			if flags.Changed("dark-mode") {
				s.DarkMode = store.Ptr(darkMode)
			}
			if flags.Changed("workspace") {
				s.CurrentWorkspaceID = store.Ptr(workspace)
			}
			if flags.Changed("tab") {
				s.ActiveTab = store.Ptr(activeTab)
			}
			if flags.Changed("search") {
				s.SearchQuery = store.Ptr(search)
			}

			var cfg store.WorkspaceConfigPatch
			changed := false
			if flags.Changed("processing-type") {
				cfg.ProcessingType = store.Ptr(store.ProcessingType(processingType))
				changed = true
			}
			if flags.Changed("persist-data") {
				cfg.PersistData = store.Ptr(persistData)
				changed = true
			}
			if flags.Changed("histogram") {
				cfg.EnableHistogram = store.Ptr(enableHistogram)
				changed = true
			}
			if flags.Changed("targets") {
				cfg.TargetList = targetList
				changed = true
			}
			if flags.Changed("conditions") {
				cfg.ConditionList = conditionList
				changed = true
			}
			if changed {
				s.WorkspaceConfig = &cfg
			}

			st, err := svc.UpdateSettings(cmd.Context(), s)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}

	setCmd.Flags().BoolVar(&darkMode, "dark-mode", false, "Dark mode")
	setCmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Current workspace")
	setCmd.Flags().IntVar(&activeTab, "tab", 0, "Active tab")
	setCmd.Flags().StringVar(&search, "search", "", "Search query")
	setCmd.Flags().StringVar(&processingType, "processing-type", string(store.ProcessingCPU), "Processing type (cpu or gpu)")
	setCmd.Flags().BoolVar(&persistData, "persist-data", true, "Persist pushed data")
	setCmd.Flags().BoolVar(&enableHistogram, "histogram", false, "Enable histograms")
	setCmd.Flags().StringSliceVar(&targetList, "targets", nil, "Target attributes")
	setCmd.Flags().StringSliceVar(&conditionList, "conditions", nil, "Condition attributes")

	var yes bool

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset state",
		Long: `Delete the persisted state and restore the defaults.

Examples:
  dcr-cli state reset --yes`,
		Run: func(cmd *cobra.Command, _ []string) {
			if !yes {
				if err := huh.NewConfirm().
					Title("Delete the persisted state?").
					Value(&yes).
					Run(); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				if !yes {
					return
				}
			}

			st, err := svc.ClearState(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	cmd.AddCommand(showCmd)
	cmd.AddCommand(setCmd)
	cmd.AddCommand(resetCmd)

	return cmd
}
