package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"cornercam/pkg/camera"
	"cornercam/pkg/config"
	"cornercam/pkg/corner"
	"cornercam/pkg/schedule"
	"cornercam/pkg/server"
	"cornercam/pkg/session"
	"cornercam/pkg/storage"
	"cornercam/pkg/video"
	"cornercam/pkg/webdav"
	"cornercam/pkg/yuv"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture frames and detect corners until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg)
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVarP(&flags.Frames, "frames", "n", flags.Frames, "number of frames to process, 0 runs until interrupted")
	f.BoolVar(&flags.Storage.StoreImages, "store", false, "store overlays and corner lists")
	f.DurationVar(&flags.Storage.Interval, "interval", 0, "minimum time between stored results")
	f.IntVarP(&flags.Server.Port, "port", "p", flags.Server.Port, "preview server port, 0 disables it")
	f.IntVar(&flags.Server.WebdavPort, "webdav-port", flags.Server.WebdavPort, "webdav port for the result directory")
	f.StringVar(&flags.Server.Statics, "statics", "", "directory of static UI files")
	f.StringVar(&flags.Record.Path, "record", "", "record the RGB frames to this AVI file")
	f.IntVar(&flags.Record.FPS, "fps", flags.Record.FPS, "frame rate written to the recording")
	f.IntVar(&flags.Record.Quality, "quality", flags.Record.Quality, "JPEG quality of the recorded frames")
	f.BoolVar(&flags.Sensor.Enable, "sensor", false, "program the OV7670 before capturing")
	f.StringVar(&flags.Sensor.Bus, "bus", "", "I²C bus of the sensor")

	rootCmd.AddCommand(runCmd)
}

func openCamera(c *config.Config) (*camera.Camera, error) {
	p, err := yuv.ParsePalette(c.Palette)
	if err != nil {
		return nil, err
	}
	opts := []camera.Option{
		camera.WithPalette(p),
		camera.WithBufferCount(c.Buffers),
	}
	if c.Fake {
		opts = append(opts, camera.WithDriver(camera.NewFakeDriver()))
	}

	return camera.Open(c.Device, c.Width, c.Height, opts...)
}

func newDetector(c config.DetectorConfig) (*corner.Detector, error) {
	k, ok := corner.KernelFor(c.Taps)
	if !ok {
		return nil, fmt.Errorf("no %d-tap derivative kernel", c.Taps)
	}
	s, err := corner.StrategyByName(c.Strategy)
	if err != nil {
		return nil, err
	}

	switch st := s.(type) {
	case *corner.Fast:
		st.Threshold = c.FastThreshold
	case *corner.Harris:
		st.Kernel = k
		st.Threshold = c.Threshold
		st.Suppress = c.Suppress
	}

	return corner.NewDetector(corner.WithStrategy(s), corner.WithLogger(logger)), nil
}

func run(ctx context.Context, c *config.Config) (err error) {
	if c.Sensor.Enable {
		if err := programSensor(c.Sensor.Bus); err != nil {
			return err
		}
	}

	cam, err := openCamera(c)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, cam.Close())
	}()

	det, err := newDetector(c.Detector)
	if err != nil {
		return err
	}
	sess := session.New(cam)

	var sinks []session.Sink
	var stg *storage.Storage
	if c.Storage.StoreImages || c.Server.Port != 0 {
		if stg, err = storage.New(c.Storage.Dir); err != nil {
			return err
		}
	}
	var sched *schedule.Scheduler
	if c.Storage.StoreImages {
		sched = schedule.New(ctx, c.Storage.Interval)
		sinks = append(sinks, sched.Wrap(storeSink(stg)))
	}
	if c.Record.Path != "" {
		b, berr := video.NewBuilder(c.Record.Path, c.Width, c.Height, c.Record.FPS)
		if berr != nil {
			return berr
		}
		b.SetQuality(c.Record.Quality)
		defer func() {
			logger.Infof("recorded %d frames to %s", b.GetCnt(), c.Record.Path)
			err = errors.Join(err, b.Close())
		}()
		sinks = append(sinks, func(f session.Frame) error {
			return b.AddImage(f.RGB)
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	if c.Server.Port != 0 {
		srv, err := server.New(sess, server.Options{
			Storage: stg,
			Webdav:  webdav.New(ctx, c.Server.WebdavPort, c.Storage.Dir),
			Statics: c.Server.Statics,
		})
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Serve(ctx, c.Server.Port); err != nil {
				logger.Errorf("preview server: %v", err)
			}
		}()
	}

	logger.Infof("detecting %s corners on %dx%d frames", det.Strategy().Name(), c.Width, c.Height)
	p := session.NewPipeline(sess, det, sinks...)
	err = p.Run(ctx, c.Frames)
	cancel()
	wg.Wait()

	st := sess.Stats()
	logger.Infof("processed %d frames, %d failures", st.Frames, st.Failures)
	if sched != nil {
		logger.Infof("stored %d results in %s", sched.Taken(), stg.Dir())
	}

	return err
}

func storeSink(stg *storage.Storage) session.Sink {
	return func(f session.Frame) error {
		name, err := stg.SaveOverlay(f.Result.Method, f.Overlay)
		if err != nil {
			return err
		}
		if _, err := stg.SaveCorners(f.Result); err != nil {
			return err
		}
		logger.Debugf("stored %s with %d corners", name, len(f.Result.Corners))
		return nil
	}
}
