package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
	"github.com/spf13/cobra"
)

var workspaceID string

func NewUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload CSV files",
		Long: `Push CSV files into the current workspace one after the other.
Every file gets an entry in the upload history, failed ones included.

Examples:
  dcr-cli upload cohort-a.csv cohort-b.csv --workspace clean-room-1`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			payloads := make([]upload.Payload, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				payloads = append(payloads, upload.Payload{
					FileName: filepath.Base(path),
					Data:     data,
				})
			}

			recs, err := svc.PushAll(cmd.Context(), workspaceID, payloads)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			for _, rec := range recs {
				if rec.Status == store.UploadSuccess {
					logSuccessCmd(*cmd, fmt.Sprintf("%s: %d rows", rec.FileName, rec.RowCount))
				}
			}
			logJSONCmd(*cmd, recs)
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "Workspace, defaults to the current one")

	return cmd
}

func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project [workspace]",
		Short: "Workspace metadata",
		Long:  `Fetch metadata of the given or current workspace.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			pid := ""
			if len(args) == 1 {
				pid = args[0]
			}

			info, err := svc.ProjectInfo(cmd.Context(), pid)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, info)
		},
	}

	return cmd
}
