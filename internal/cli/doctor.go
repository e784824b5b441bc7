package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/assetflow/internal/adapters/gatewayclient"
	"github.com/example/assetflow/internal/adapters/kafka"
	"github.com/example/assetflow/internal/config"
	"github.com/example/assetflow/internal/db"
	"github.com/example/assetflow/internal/version"
)

const doctorTimeout = 5 * time.Second

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the assetflow configuration and its backends",
		Long: `Health check for assetflow.

Validates:
- Config file and environment overrides
- Actor identity
- Local database and schema version, or the remote gateway
- Kafka brokers for transfer events

Examples:
  assetflow doctor              # Run full health check
  assetflow doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg, cfgErr := config.LoadConfig(cwd)

			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()
			results := runChecks(ctx, cfg, cfgErr)

			out := cmd.OutOrStdout()
			if quiet {
				out = io.Discard
			}
			if printResults(out, results) {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress output, exit code only")
	return cmd
}

func runChecks(ctx context.Context, cfg *config.Config, cfgErr error) []CheckResult {
	results := []CheckResult{{Name: "version", Status: "✓", Details: version.String()}}

	if cfgErr != nil {
		return append(results, CheckResult{Name: "config", Status: "✗", Details: cfgErr.Error()})
	}
	results = append(results, CheckResult{Name: "config", Status: "✓"})
	results = append(results, checkIdentity(cfg))

	if cfg.IsRemote() {
		results = append(results, checkGateway(ctx, cfg))
	} else {
		results = append(results, checkDatabase(cfg))
	}
	return append(results, checkKafka(ctx, cfg))
}

func checkIdentity(cfg *config.Config) CheckResult {
	if cfg.Actor.ID == 0 {
		return CheckResult{Name: "identity", Status: "⚠", Details: "No actor configured. Run 'assetflow init --actor-id <id>' or set ASSETFLOW_ACTOR_ID."}
	}
	return CheckResult{Name: "identity", Status: "✓"}
}

func checkDatabase(cfg *config.Config) CheckResult {
	path := cfg.Database.Path
	if path == "" {
		var err error
		if path, err = db.GetDBPath(); err != nil {
			return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
		}
	}

	conn, err := db.Open(path)
	if err != nil {
		return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
	}
	defer conn.Close()

	schema, dirty, err := db.SchemaVersion(conn)
	if err != nil {
		return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
	}
	if dirty {
		return CheckResult{Name: "database", Status: "✗", Details: fmt.Sprintf("%s: migration %d left the schema dirty", path, schema)}
	}
	return CheckResult{Name: "database", Status: "✓"}
}

func checkGateway(ctx context.Context, cfg *config.Config) CheckResult {
	client := gatewayclient.New(cfg.Gateway.URL, cfg.Gateway.Timeout)
	if _, err := client.ListSectors(ctx); err != nil {
		return CheckResult{Name: "gateway", Status: "✗", Details: fmt.Sprintf("%s: %v", cfg.Gateway.URL, err)}
	}
	return CheckResult{Name: "gateway", Status: "✓"}
}

func checkKafka(ctx context.Context, cfg *config.Config) CheckResult {
	if len(cfg.Kafka.Brokers) == 0 {
		return CheckResult{Name: "kafka", Status: "⚠", Details: "No brokers configured; transfer events are not published."}
	}
	if _, err := kafka.Ping(ctx, cfg.Kafka.Brokers); err != nil {
		return CheckResult{Name: "kafka", Status: "⚠", Details: err.Error()}
	}
	return CheckResult{Name: "kafka", Status: "✓"}
}

// printResults writes the check table and reports whether any check failed.
func printResults(out io.Writer, results []CheckResult) bool {
	hasErrors := false
	for _, r := range results {
		if r.Status == "✗" {
			hasErrors = true
			break
		}
	}

	// Print compact table
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Check              Status")
	fmt.Fprintln(out, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(out, "%-18s %s\n", r.Name, r.Status)
	}
	fmt.Fprintln(out)

	// Print details for non-passing checks
	hasDetails := false
	for _, r := range results {
		if r.Status != "✓" && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(out, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(out, "\n%s:\n%s\n", r.Name, r.Details)
		}
	}

	if hasErrors {
		fmt.Fprintln(out, "\n⚠ Issues found.")
	} else {
		fmt.Fprintln(out, "All checks passed.")
	}
	return hasErrors
}
