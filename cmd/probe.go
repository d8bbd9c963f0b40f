package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cornercam/pkg/camera"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print the capabilities of the video device",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []camera.Option
		if cfg.Fake {
			opts = append(opts, camera.WithDriver(camera.NewFakeDriver()))
		}
		c, err := camera.Probe(cfg.Device, opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "device:    %s\n", cfg.Device)
		fmt.Fprintf(out, "driver:    %s\n", c.Driver)
		fmt.Fprintf(out, "card:      %s\n", c.Card)
		fmt.Fprintf(out, "bus:       %s\n", c.BusInfo)
		fmt.Fprintf(out, "capture:   %t\n", c.Capture)
		fmt.Fprintf(out, "streaming: %t\n", c.Streaming)
		if c.MaxWidth > 0 {
			fmt.Fprintf(out, "max size:  %dx%d\n", c.MaxWidth, c.MaxHeight)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
