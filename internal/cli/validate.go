package cli

import (
	"fmt"
	"math"

	"bcistim/engine"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a protocol file and its stimulus catalog without opening a display",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engine.LoadConfig(configPath)
			if err != nil {
				return err
			}
			catalog := 0
			if cfg.Paradigm == engine.ParadigmCAMS {
				assets, err := engine.ListStimulusAssets(cfg.AssetsDir)
				if err != nil {
					return err
				}
				catalog = len(assets)
			}
			if _, err := engine.NewParadigm(cfg, catalog); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			trial := cfg.CuePeriod + cfg.StimulationPeriod + cfg.BreakPeriod
			total := trial * float64(cfg.NumTrials*cfg.NumStimuli())
			_, _ = fmt.Fprintf(out, "paradigm:      %s (%s units)\n", cfg.Paradigm, cfg.Units)
			_, _ = fmt.Fprintf(out, "stimuli:       %d at %v Hz\n", cfg.NumStimuli(), cfg.Frequencies)
			_, _ = fmt.Fprintf(out, "trials:        %d (%d per stimulus)\n", cfg.NumTrials*cfg.NumStimuli(), cfg.NumTrials)
			_, _ = fmt.Fprintf(out, "frames/trial:  %d cue, %d stimulation at %v Hz\n",
				cfg.Frames(cfg.CuePeriod), cfg.Frames(cfg.StimulationPeriod), cfg.RefreshRate)
			if catalog > 0 {
				_, _ = fmt.Fprintf(out, "catalog:       %d images in %s\n", catalog, cfg.AssetsDir)
			}
			_, _ = fmt.Fprintf(out, "duration:      about %.0fs\n", math.Ceil(total))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Protocol YAML file (env: BCISTIM_*)")
	return cmd
}
