package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stashbench",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Backend flags
	flags.StringP("backend", "b", "", "Storage backend to drive (postgres, mysql, redis, badger)")
	flags.String("dsn", "", "Connection string for postgres/mysql backends")
	flags.String("addr", "", "host:port for the redis backend")
	flags.String("password", "", "Password for the redis backend")
	flags.Int("redis-db", 0, "Redis database number")
	flags.String("path", "", "Data directory for the badger backend")
	flags.String("table", "", "SQL table name (default bench_entries)")
	flags.Int("max-conns", 0, "Backend connection pool ceiling (default 10)")

	// Workload flags
	flags.StringP("mode", "m", "write", "Operation mode: write or read")
	flags.IntP("total", "t", 1000, "Total number of operations to attempt")
	flags.IntP("concurrency", "c", 1, "Number of concurrent lanes")
	flags.Int("batch-size", 100, "Rows per write batch")
	flags.Int("read-limit", 100, "Result-size limit per read")
	flags.Int("payload-size", 64, "Payload bytes per row")
	flags.Int("seed-ops", 0, "Write batches to seed before a read run")
	flags.String("key-prefix", "", "Key namespace (default: fresh per run)")

	// Pacing flags
	flags.IntP("rate", "r", 0, "Operations per second pacing limit (0 means unlimited)")
	flags.Duration("timeout", 30*time.Second, "Per-operation timeout (0 means none)")

	// Output flags
	flags.BoolP("json", "j", false, "Emit the final report as JSON")
	flags.Bool("dashboard", false, "Show a live terminal dashboard")
	flags.Bool("log-errors", false, "Log each failed operation to stderr")
	flags.StringSlice("threshold", nil, "Pass/fail assertion, e.g. 'op_duration:p95 < 200' (repeatable)")

	// Feeder flags
	flags.String("feeder", "", "Path to a CSV or JSON dataset of lookup keys")
	flags.String("feeder-type", "", "Dataset format: csv or json (default from extension)")
	flags.String("feeder-key-field", "key", "Dataset field holding the lookup key")
	flags.Bool("feeder-rewind", true, "Loop the dataset when exhausted")

	// Config file
	flags.StringP("config", "f", "", "Path to a YAML/JSON config file")
	flags.BoolP("help", "h", false, "Show usage")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "stashbench - storage backend load testing tool")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  stashbench --backend badger --path ./bench-data --mode write --total 10000 -c 16")
	fmt.Fprintln(out, "  stashbench --backend postgres --dsn postgres://user:pw@host:5432/db --mode read --seed-ops 100")
	fmt.Fprintln(out, "  stashbench -f bench.yaml")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fmt.Fprint(out, cmd.Flags().FlagUsages())
}
