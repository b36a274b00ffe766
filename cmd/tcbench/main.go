package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tcbench/config"
	"tcbench/core/model"
	"tcbench/core/version"
	"tcbench/logging"
	"tcbench/runner"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code: 0 for a validated
// pass, 1 for anything else.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		cfgFile string
		exit    int
	)
	cfg := config.Defaults()

	cmd := &cobra.Command{
		Use:           "tcbench [flags] <benchmark>",
		Short:         "Build and run a benchmark with a given toolchain on this machine",
		Args:          cobra.ExactArgs(1),
		Version:       version.CoreVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			final := config.Defaults()
			if cfgFile != "" {
				loaded, err := config.LoadFile(cfgFile, final)
				if err != nil {
					return err
				}
				final = loaded
			}
			final = overlayFlags(cmd, final, cfg)
			final.Benchmark = positional[0]

			logger := logging.New(logging.Config{Verbosity: final.Verbosity, Output: stderr})
			res, err := runner.Run(cmd.Context(), final, runner.RunOptions{
				Logger:  logger,
				Console: stdout,
			})
			if err != nil {
				return err
			}
			if verr := res.Outcome.ValidationErr(); verr != nil {
				logger.Warn("benchmark failed validation", "error", verr)
			}
			exit = res.ExitCode
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "YAML file with default options")
	f.StringVarP(&cfg.Machine, "machine", "m", cfg.Machine, "machine model (default: host architecture)")
	f.StringVarP(&cfg.Toolchain, "toolchain", "t", cfg.Toolchain, "compiler name, path, file:// or http(s):// tarball")
	f.StringVar(&cfg.CompileFlags, "compile-flags", cfg.CompileFlags, "extra compiler flags, appended last")
	f.StringVar(&cfg.LinkFlags, "link-flags", cfg.LinkFlags, "extra linker flags, appended last")
	f.StringVar(&cfg.RunFlags, "run-flags", cfg.RunFlags, "extra benchmark arguments")
	f.IntVarP(&cfg.Iterations, "iterations", "i", cfg.Iterations, "number of runs")
	f.IntVarP(&cfg.Size, "size", "s", cfg.Size, "problem size (0: benchmark default)")
	f.IntVarP(&cfg.Threads, "threads", "n", cfg.Threads, "worker threads (0: host default)")
	f.CountVarP(&cfg.Verbosity, "verbose", "v", "increase verbosity (-v info, -vv debug)")
	f.StringVar(&cfg.RunID, "run-id", cfg.RunID, "unique run name (default: random uuid)")
	f.StringVar(&cfg.RootDir, "root-dir", cfg.RootDir, "directory holding run workspaces")
	f.BoolVar(&cfg.Profile, "profile", cfg.Profile, "wrap runs with perf stat")
	f.BoolVar(&cfg.Pin, "pin", cfg.Pin, "pin runs to the planned affinity with taskset")
	f.StringVar((*string)(&cfg.Tracing), "tracing", string(cfg.Tracing), "exec tracing mode: disabled or host")
	f.StringVar(&cfg.BPFObjectDir, "bpf-dir", cfg.BPFObjectDir, "directory of compiled eBPF objects")
	f.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write a Prometheus textfile of the summaries")

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exit
	}
	fmt.Fprintln(stderr, "tcbench:", err)
	if usageError(err) {
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return 1
}

// overlayFlags copies explicitly set flags from flagged onto base, so file
// values survive unless the command line names them.
func overlayFlags(cmd *cobra.Command, base, flagged config.Config) config.Config {
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("machine", func() { base.Machine = flagged.Machine })
	set("toolchain", func() { base.Toolchain = flagged.Toolchain })
	set("compile-flags", func() { base.CompileFlags = flagged.CompileFlags })
	set("link-flags", func() { base.LinkFlags = flagged.LinkFlags })
	set("run-flags", func() { base.RunFlags = flagged.RunFlags })
	set("iterations", func() { base.Iterations = flagged.Iterations })
	set("size", func() { base.Size = flagged.Size })
	set("threads", func() { base.Threads = flagged.Threads })
	set("verbose", func() { base.Verbosity = flagged.Verbosity })
	set("run-id", func() { base.RunID = flagged.RunID })
	set("root-dir", func() { base.RootDir = flagged.RootDir })
	set("profile", func() { base.Profile = flagged.Profile })
	set("pin", func() { base.Pin = flagged.Pin })
	set("tracing", func() { base.Tracing = flagged.Tracing })
	set("bpf-dir", func() { base.BPFObjectDir = flagged.BPFObjectDir })
	set("metrics-file", func() { base.MetricsFile = flagged.MetricsFile })
	return base
}

// usageError reports errors caused by what the user asked for rather than
// by the run itself.
func usageError(err error) bool {
	return errors.Is(err, model.ErrPluginNotFound) ||
		errors.Is(err, model.ErrPluginInvalid) ||
		errors.Is(err, model.ErrConfiguration) ||
		isArgError(err)
}
