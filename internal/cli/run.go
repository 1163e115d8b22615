package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"bcistim/engine"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// presenterGrace is how long an interrupted presenter gets to flush its
// log before it is killed.
const presenterGrace = 10 * time.Second

func newRunCmd() *cobra.Command {
	var (
		opts       presentOptions
		foreground bool
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a stimulation protocol",
		Long: "Run a stimulation protocol. The presentation runs in a separate bcistim process " +
			"that owns the display and writes {paradigm}_timestamps_event_id_{unix}.csv to the output directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engine.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if opts.runID == "" {
				opts.runID = uuid.NewString()
			}
			slog.Info("protocol loaded",
				"run_id", opts.runID,
				"paradigm", cfg.Paradigm,
				"trials", cfg.NumTrials,
				"frequencies", cfg.Frequencies)

			if foreground {
				return presentAndReport(cmd.Context(), cfg, opts, cmd.OutOrStdout())
			}

			spawn := presenterCommand(opts, cmd.Flag("log-level").Value.String(), cmd.Flag("log-format").Value.String())
			if !wait {
				return startDetached(spawn, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			return runAndWait(cmd.Context(), spawn, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Present in this process instead of a separate one")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for the presenter to finish and report its result")
	return cmd
}

type presenterSpawn struct {
	path string
	args []string
}

func presenterCommand(opts presentOptions, logLevel, logFormat string) presenterSpawn {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	args := []string{"present",
		"--run-id", opts.runID,
		"--log-level", logLevel,
		"--log-format", logFormat,
	}
	if opts.configPath != "" {
		args = append(args, "--config", opts.configPath)
	}
	if opts.dlpDevice != "" {
		args = append(args, "--dlp", opts.dlpDevice, "--dlp-baud", fmt.Sprint(opts.dlpBaud))
	}
	return presenterSpawn{path: exe, args: args}
}

func startDetached(s presenterSpawn, out, errOut io.Writer) error {
	c := exec.Command(s.path, s.args...)
	c.Env = os.Environ()
	c.Stderr = errOut
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start presenter: %w", err)
	}
	pid := c.Process.Pid
	_ = c.Process.Release()
	_, _ = fmt.Fprintf(out, "presenter started (pid %d)\n", pid)
	return nil
}

func runAndWait(ctx context.Context, s presenterSpawn, out, errOut io.Writer) error {
	c := exec.CommandContext(ctx, s.path, s.args...)
	c.Env = os.Environ()
	c.Stderr = errOut
	var stdout bytes.Buffer
	c.Stdout = &stdout
	// Interrupt rather than kill so the presenter flushes its log.
	c.Cancel = func() error { return c.Process.Signal(os.Interrupt) }
	c.WaitDelay = presenterGrace

	runErr := c.Run()
	report := parseReport(&stdout)
	if len(report) > 0 {
		_, _ = fmt.Fprintf(out, "run %s %s: %s trials, %s events\n",
			report["run_id"], report["state"], report["trials"], report["events"])
		if path := report["output"]; path != "" {
			_, _ = fmt.Fprintf(out, "event log: %s\n", path)
		}
	}

	if runErr == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(runErr, &ee) && ee.ExitCode() > 0 {
		return &exitError{code: ee.ExitCode(), msg: fmt.Sprintf("presenter exited with status %d", ee.ExitCode())}
	}
	return fmt.Errorf("presenter: %w", runErr)
}
