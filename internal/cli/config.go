package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/internal/tui"
)

var configCmd = &cobra.Command{
	Use:   "config [project_dir]",
	Short: "Write the resolved connection into pgstage.yaml",
	Long: `Config resolves the connection from flags, environment variables and any
existing pgstage.yaml, and writes it to the connection block of pgstage.yaml.
Existing loads and timeout are kept. Passwords and client secrets are never
written to pgstage.yaml.

With --save-password the password from $PGPASSWORD (or the connection string)
is stored in the .pgpass file instead ($PGPASSFILE overrides its location).

Examples:
  pgstage config -h db.internal -U loader -d covid
  PGPASSWORD=... pgstage config ./etl --connection postgresql://loader@db/covid --save-password`,
	Args:              OptionalProjectPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runConfig,
}

type configFlagValues struct {
	conn         connectionFlags
	savePassword bool
}

var configFlags configFlagValues

func init() {
	rootCmd.AddCommand(configCmd)

	configFlags.conn.register(configCmd)
	configCmd.Flags().BoolVar(&configFlags.savePassword, "save-password", false,
		"Store the password in .pgpass (chmod 600)")
}

// saveConfig writes the resolved connection of f into dir and returns the
// messages to show the user.
func saveConfig(dir string, f configFlagValues, env *db.EnvVars) ([]string, error) {
	projectCfg, err := loadProjectConfig(dir)
	if err != nil {
		return nil, err
	}

	connConfig, err := resolveConnection(f.conn, env, projectCfg)
	if err != nil {
		return nil, err
	}

	path, err := saveConnectionToConfig(dir, connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}
	messages := []string{fmt.Sprintf("Connection saved to %s", path)}

	if f.savePassword {
		if err := writePgpassEntry(connConfig); err != nil {
			return messages, fmt.Errorf("failed to save .pgpass: %w", err)
		}
		messages = append(messages, fmt.Sprintf("Password saved to %s", pgpassPath()))
	}
	return messages, nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	messages, err := saveConfig(projectDir(args), configFlags, nil)
	for _, m := range messages {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.SuccessStyle.Render(tui.SymbolCheck+" "+m))
	}
	return err
}
