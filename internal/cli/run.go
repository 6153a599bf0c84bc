package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/internal/loader"
	"github.com/vvka-141/pgstage/internal/logging"
	"github.com/vvka-141/pgstage/internal/tui"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

var runCmd = &cobra.Command{
	Use:   "run [project_dir]",
	Short: "Run every load listed in pgstage.yaml",
	Long: `Run executes the loads: list of the project's pgstage.yaml in order,
over one connection pool. Source paths are relative to the project directory.
The first failing load stops the run; loads already committed stay committed.

Example pgstage.yaml:

  connection:
    host: localhost
    database: covid
  timeout: 15m
  loads:
    - source: data/beds.csv
      table: covid.hospital_beds
      policy: replace
    - source: data/icu.parquet.zst
      table: covid.icu
      index: [county]
      include_index: true

Examples:
  pgstage run
  pgstage run ./etl --force`,
	Args:              OptionalProjectPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runRun,
}

type runFlagValues struct {
	conn    connectionFlags
	only    []string
	force   bool
	timeout time.Duration
}

var runFlags runFlagValues

func init() {
	rootCmd.AddCommand(runCmd)
	registerRunFlags(runCmd, &runFlags)
}

func registerRunFlags(cmd *cobra.Command, f *runFlagValues) {
	f.conn.register(cmd)
	cmd.Flags().StringSliceVar(&f.only, "only", nil,
		"Run only the loads targeting these tables (comma-separated)")
	cmd.Flags().BoolVar(&f.force, "force", false,
		"Skip the interactive confirmation for replace loads")
	cmd.Flags().DurationVar(&f.timeout, "timeout", pgstage.DefaultTimeout,
		"Catastrophic failure protection timeout for the whole run")
}

// runInvocation is a resolved `run`: connection, timeout and job plans.
type runInvocation struct {
	conn    *pgstage.ConnectionConfig
	timeout time.Duration
	plans   []jobPlan
}

// buildRunInvocation loads and validates pgstage.yaml and plans every job.
func buildRunInvocation(cmd *cobra.Command, f *runFlagValues, dir string, env *db.EnvVars) (*runInvocation, error) {
	projectCfg, err := loadProjectConfig(dir)
	if err != nil {
		return nil, err
	}
	if projectCfg == nil {
		return nil, fmt.Errorf("%s not found in %s: %w", config.ConfigFileName, dir, pgstage.ErrInvalidConfig)
	}
	if err := projectCfg.Validate(); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(f.only))
	for _, t := range f.only {
		table, err := pgstage.ParseTable(t)
		if err != nil {
			return nil, err
		}
		wanted[table.String()] = true
	}

	var plans []jobPlan
	for i, job := range projectCfg.Loads {
		plan, err := planJob(job, dir)
		if err != nil {
			return nil, fmt.Errorf("loads[%d]: %w", i, err)
		}
		if len(wanted) > 0 && !wanted[plan.options.Table.String()] {
			continue
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("no loads to run in %s: %w", config.ConfigFileName, pgstage.ErrInvalidConfig)
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, f.timeout)
	if err != nil {
		return nil, err
	}

	connConfig, err := resolveConnection(f.conn, env, projectCfg)
	if err != nil {
		return nil, err
	}

	return &runInvocation{conn: connConfig, timeout: timeout, plans: plans}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	inv, err := buildRunInvocation(cmd, &runFlags, projectDir(args), nil)
	if err != nil {
		return err
	}
	if verbose {
		logConnectionVerbose(logger, inv.conn)
	}

	ctx, cancel := commandContext(inv.timeout)
	defer cancel()

	pool, closePool, err := connect(ctx, inv.conn, logger)
	if err != nil {
		return err
	}
	defer closePool()

	session := &loadSession{
		handle:   pgstage.Pooled{Pool: pool},
		loader:   loader.New(logger),
		approver: selectApprover(runFlags.force, verbose),
		logger:   logger,
		progress: tui.Run,
	}

	var total int64
	for i, plan := range inv.plans {
		result, err := session.execute(ctx, plan)
		if err != nil {
			return fmt.Errorf("load %d/%d (%s) failed: %w", i+1, len(inv.plans), plan.options.Table, err)
		}
		total += result.Rows
	}

	logger.Info("%d loads completed, %d rows", len(inv.plans), total)
	return nil
}
