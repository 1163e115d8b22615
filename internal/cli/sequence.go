package cli

import (
	"fmt"
	"strconv"
	"strings"

	"bcistim/engine"

	"github.com/spf13/cobra"
)

func newSequenceCmd() *cobra.Command {
	var (
		configPath string
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Print the balanced trial sequence a protocol would present",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engine.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			seq, err := engine.GenerateSequence(cfg.NumTrials, cfg.NumStimuli(), engine.NewRand(cfg.Seed))
			if err != nil {
				return err
			}
			ids := make([]string, len(seq))
			for i, id := range seq {
				ids[i] = strconv.Itoa(id)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, ","))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Protocol YAML file (env: BCISTIM_*)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Shuffle seed (default: the protocol seed)")
	return cmd
}
