package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cornercam/pkg/config"
	"cornercam/pkg/utils"
)

// Version is the application version.
const Version = "0.1.0"

var (
	cfgFile string
	cfg     *config.Config

	logger *zap.SugaredLogger
)

func init() {
	logger = utils.GetLogger()
	cfg = config.Default()
}

var rootCmd = &cobra.Command{
	Use:     "cornercam",
	Short:   "V4L2 capture with Harris and FAST corner detection",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, !cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := config.Validate(loaded); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := utils.SetLevel(loaded.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q: %w", loaded.LogLevel, err)
		}
		cfg = loaded

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	ctx, stop := utils.SignalContext(context.Background())
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// flags holds the command line overrides. Only flags the user set are
// copied over the loaded configuration.
var flags = config.Default()

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "cornercam.yaml", "YAML configuration file")
	pf.StringVarP(&flags.Device, "device", "d", flags.Device, "video device")
	pf.BoolVar(&flags.Fake, "fake", false, "use a synthetic checkerboard instead of a device")
	pf.IntVar(&flags.Width, "width", flags.Width, "capture width")
	pf.IntVar(&flags.Height, "height", flags.Height, "capture height")
	pf.StringVar(&flags.Palette, "palette", flags.Palette, "capture palette (uyvy, yuyv)")
	pf.IntVar(&flags.Buffers, "buffers", flags.Buffers, "number of mapped capture buffers")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level")

	pf.StringVarP(&flags.Detector.Strategy, "strategy", "s", flags.Detector.Strategy, "corner strategy (harris, fast)")
	pf.IntVar(&flags.Detector.Taps, "taps", flags.Detector.Taps, "derivative filter length (5, 7)")
	pf.Float32Var(&flags.Detector.Threshold, "threshold", flags.Detector.Threshold, "Harris response threshold")
	pf.IntVar(&flags.Detector.FastThreshold, "fast-threshold", flags.Detector.FastThreshold, "FAST intensity threshold")
	pf.BoolVar(&flags.Detector.Suppress, "suppress", false, "keep only local maxima of the Harris response")

	pf.StringVar(&flags.Storage.Dir, "dir", flags.Storage.Dir, "result directory")
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed
	if changed("device") {
		c.Device = flags.Device
	}
	if changed("fake") {
		c.Fake = flags.Fake
	}
	if changed("width") {
		c.Width = flags.Width
	}
	if changed("height") {
		c.Height = flags.Height
	}
	if changed("palette") {
		c.Palette = flags.Palette
	}
	if changed("buffers") {
		c.Buffers = flags.Buffers
	}
	if changed("log-level") {
		c.LogLevel = flags.LogLevel
	}
	if changed("strategy") {
		c.Detector.Strategy = flags.Detector.Strategy
	}
	if changed("taps") {
		c.Detector.Taps = flags.Detector.Taps
	}
	if changed("threshold") {
		c.Detector.Threshold = flags.Detector.Threshold
	}
	if changed("fast-threshold") {
		c.Detector.FastThreshold = flags.Detector.FastThreshold
	}
	if changed("suppress") {
		c.Detector.Suppress = flags.Detector.Suppress
	}
	if changed("dir") {
		c.Storage.Dir = flags.Storage.Dir
	}

	// run only
	if changed("frames") {
		c.Frames = flags.Frames
	}
	if changed("store") {
		c.Storage.StoreImages = flags.Storage.StoreImages
	}
	if changed("interval") {
		c.Storage.Interval = flags.Storage.Interval
	}
	if changed("port") {
		c.Server.Port = flags.Server.Port
	}
	if changed("webdav-port") {
		c.Server.WebdavPort = flags.Server.WebdavPort
	}
	if changed("statics") {
		c.Server.Statics = flags.Server.Statics
	}
	if changed("record") {
		c.Record.Path = flags.Record.Path
	}
	if changed("fps") {
		c.Record.FPS = flags.Record.FPS
	}
	if changed("quality") {
		c.Record.Quality = flags.Record.Quality
	}
	if changed("sensor") {
		c.Sensor.Enable = flags.Sensor.Enable
	}
	if changed("bus") {
		c.Sensor.Bus = flags.Sensor.Bus
	}
}
