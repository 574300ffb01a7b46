package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/site-environment/internal/service/common"
	"github.com/oshokin/site-environment/internal/version"
)

// newProbeCommand checks the gRPC health endpoint of a running simulator.
func newProbeCommand() *cobra.Command {
	var timeout time.Duration

	probeCmd := &cobra.Command{
		Use:   "probe [health-address]",
		Short: "Exit non-zero unless the simulator at health-address reports SERVING.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			client, err := common.Dial(ctx, args[0], common.WithCallTimeout(timeout))
			if err != nil {
				return err
			}

			defer func() {
				_ = client.Close()
			}()

			if err = client.Probe(ctx, version.Name); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "SERVING")

			return nil
		},
	}

	probeCmd.Flags().DurationVarP(&timeout, "timeout", "t", common.DefaultCallTimeout, "probe timeout")

	return probeCmd
}
