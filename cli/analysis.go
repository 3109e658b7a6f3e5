package cli

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/absmach/cleanroom/analysis"
	"github.com/spf13/cobra"
)

var errInvalidInput = errors.New("prediction input is not valid JSON")

var (
	cohort    string
	inputs    []string
	targets   []string
	algorithm string
)

func NewExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore <uni|bi> <attribute> [attribute...]",
		Short: "Explore attributes",
		Long: `Request a univariate or bivariate summary of the selected attributes.
A bivariate summary can be conditioned on a cohort.

Examples:
  dcr-cli explore uni age bmi
  dcr-cli explore bi age bmi --cohort Smokers`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			metric, err := analysis.ParseMetricType(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			req, err := analysis.Build(metric, args[1:], cohort)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			res, err := svc.Explore(cmd.Context(), workspaceID, req)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	cmd.Flags().StringVarP(&cohort, "cohort", "c", analysis.AllCohorts, "Cohort for bivariate summaries")
	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "Workspace, defaults to the current one")

	return cmd
}

func NewOverviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Workspace overview",
		Long:  `Summarize age, bmi and sex of the current workspace.`,
		Run: func(cmd *cobra.Command, _ []string) {
			res, err := svc.Overview(cmd.Context(), workspaceID)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "Workspace, defaults to the current one")

	return cmd
}

func NewModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Build predictive model",
		Long: `Build a predictive model from input and target attributes.

Examples:
  dcr-cli model --algorithm logreg --inputs age,bmi --targets smoker`,
		Run: func(cmd *cobra.Command, _ []string) {
			req, err := analysis.BuildModel(analysis.Algorithm(algorithm), inputs, targets)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			res, err := svc.BuildModel(cmd.Context(), workspaceID, req)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(analysis.RandomForest), "One of logreg, ridgereg, randomforest, svm")
	cmd.Flags().StringSliceVarP(&inputs, "inputs", "i", nil, "Input attributes")
	cmd.Flags().StringSliceVarP(&targets, "targets", "t", nil, "Target attributes")
	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "Workspace, defaults to the current one")

	return cmd
}

func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <input.json>",
		Short: "Run prediction",
		Long:  `Run a prediction against the built model with the JSON input read from a file.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if !json.Valid(data) {
				logErrorCmd(*cmd, errInvalidInput)

				return
			}

			res, err := svc.Predict(cmd.Context(), workspaceID, data)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "Workspace, defaults to the current one")

	return cmd
}
