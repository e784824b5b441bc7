package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/assetflow/internal/config"
	"github.com/example/assetflow/internal/db"
)

type initOptions struct {
	ActorID    int64
	Role       string
	GatewayURL string
	DBPath     string
	Force      bool
}

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize assetflow in the current directory",
		Long: `Write .assetflow/config.yaml with the actor identity and, when no
remote gateway is given, create the local database with the schema.

Examples:
  assetflow init --actor-id 4 --role User
  assetflow init --actor-id 2 --role Manager --gateway http://assets.internal:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			return initWorkspace(cwd, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64Var(&opts.ActorID, "actor-id", 0, "Your user ID")
	cmd.Flags().StringVar(&opts.Role, "role", "User", "Your role (Administrator, Manager, User)")
	cmd.Flags().StringVar(&opts.GatewayURL, "gateway", "", "Remote gateway URL (default: local database)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "Local database path (default: ~/.assetflow/assetflow.db)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite an existing config")

	return cmd
}

func initWorkspace(dir string, opts initOptions, out io.Writer) error {
	path := config.Path(dir)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	cfg.Actor.ID = opts.ActorID
	cfg.Actor.Role = opts.Role
	cfg.Gateway.URL = opts.GatewayURL
	if opts.DBPath != "" {
		cfg.Database.Path = opts.DBPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.SaveConfig(dir, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Config written to %s\n", path)

	if cfg.IsRemote() {
		fmt.Fprintf(out, "✓ Using gateway at %s\n", cfg.Gateway.URL)
	} else {
		dbPath := cfg.Database.Path
		if dbPath == "" {
			if dbPath, err = db.GetDBPath(); err != nil {
				return err
			}
		}
		conn, err := db.Open(dbPath)
		if err != nil {
			return err
		}
		conn.Close()
		fmt.Fprintf(out, "✓ Database initialized at %s\n", dbPath)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	if !cfg.IsRemote() {
		fmt.Fprintln(out, "  assetflow seed              # load sample sectors, custodians and assets")
	}
	fmt.Fprintln(out, "  assetflow transfer request")
	return nil
}
