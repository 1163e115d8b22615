package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"bcistim/engine"
	"bcistim/screen"

	"github.com/Zyko0/go-sdl3/bin/binimg"
	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"
	"github.com/spf13/cobra"
)

type presentOptions struct {
	configPath string
	dlpDevice  string
	dlpBaud    int
	runID      string
}

func (o *presentOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "Protocol YAML file (env: BCISTIM_*)")
	cmd.Flags().StringVar(&o.dlpDevice, "dlp", "", "DLP-IO8-G serial device for TTL markers (e.g. /dev/ttyUSB0)")
	cmd.Flags().IntVar(&o.dlpBaud, "dlp-baud", 9600, "DLP-IO8-G baud rate")
	cmd.Flags().StringVar(&o.runID, "run-id", "", "Run identifier attached to log lines")
}

func newPresentCmd() *cobra.Command {
	var opts presentOptions

	cmd := &cobra.Command{
		Use:    "present",
		Short:  "Run a protocol in this process (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engine.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			return presentAndReport(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	opts.bind(cmd)
	return cmd
}

func presentAndReport(ctx context.Context, cfg *engine.ProtocolConfig, opts presentOptions, out io.Writer) error {
	res, err := present(ctx, cfg, opts)
	writeReport(out, res)
	if err != nil {
		return err
	}
	if res.State == engine.StateAborted {
		return &exitError{code: ExitAborted, msg: fmt.Sprintf("run aborted (%s)", res.AbortReason)}
	}
	return nil
}

// present owns the display for the whole run.
func present(ctx context.Context, cfg *engine.ProtocolConfig, opts presentOptions) (engine.Result, error) {
	logger := slog.Default()

	if err := cfg.EnsureOutputDir(); err != nil {
		return engine.Result{}, err
	}

	var assets []string
	if cfg.Paradigm == engine.ParadigmCAMS {
		var err error
		if assets, err = engine.ListStimulusAssets(cfg.AssetsDir); err != nil {
			return engine.Result{}, err
		}
	}
	paradigm, err := engine.NewParadigm(cfg, len(assets))
	if err != nil {
		return engine.Result{}, err
	}

	loopOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.runID != "" {
		loopOpts = append(loopOpts, engine.WithRunID(opts.runID))
	}
	if opts.dlpDevice != "" {
		dlp, err := engine.OpenDLPIO8G(opts.dlpDevice, opts.dlpBaud, logger)
		if err != nil {
			logger.Warn("failed to initialize DLP device, running without markers", "device", opts.dlpDevice, "err", err)
		} else {
			defer dlp.Close()
			loopOpts = append(loopOpts, engine.WithMarker(dlp))
		}
	}

	loop, err := engine.NewPresentationLoop(cfg, paradigm, screen.Opener(cfg, assets, logger), loopOpts...)
	if err != nil {
		return engine.Result{}, err
	}

	defer binsdl.Load().Unload()
	defer binimg.Load().Unload()
	defer binttf.Load().Unload()

	return loop.Run(ctx)
}
