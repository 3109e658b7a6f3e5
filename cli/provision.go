package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/absmach/cleanroom"
	"github.com/spf13/cobra"
)

var errConfigExists = errors.New("config file already exists, use --force to overwrite")

const filePermission = 0o644

var force bool

// NewInitCmd writes a config file holding the defaults to the path the
// root --config flag points to.
func NewInitCmd(path *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default config",
		Long:  `Write a TOML config file holding the default settings.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if _, err := os.Stat(*path); err == nil && !force {
				logErrorCmd(*cmd, errConfigExists)

				return
			}

			cfg := cleanroom.DefaultConfig()
			configContent := fmt.Sprintf(`# Clean room dashboard configuration

log_level = %q

[remote]
url = %q
timeout = %q
tls_verification = %t

[store]
# memory, badger or bolt
backend = %q
dir = %q

[cache]
stale_time = %q
retries = %d
mutation_retries = %d
initial_backoff = %q
max_backoff = %q

[upload]
# pushes per second, 0 disables pacing
rate = %.1f
burst = %d
`,
				cfg.LogLevel,
				cfg.Remote.URL,
				cfg.Remote.Timeout.String(),
				cfg.Remote.TLSVerification,
				cfg.Store.Backend,
				cfg.Store.Dir,
				cfg.Cache.StaleTime.String(),
				cfg.Cache.Retries,
				cfg.Cache.MutationRetries,
				cfg.Cache.InitialBackoff.String(),
				cfg.Cache.MaxBackoff.String(),
				cfg.Upload.Rate,
				cfg.Upload.Burst,
			)

			if err := os.WriteFile(*path, []byte(configContent), filePermission); err != nil {
				logErrorCmd(*cmd, fmt.Errorf("failed to create config file: %w", err))

				return
			}
			logSuccessCmd(*cmd, "Successfully created "+*path)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
