package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"cornercam/pkg/rawimage"
	"cornercam/pkg/session"
	"cornercam/pkg/storage"
)

var detectOut string

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect corners in a BMP, PNG or JPEG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, overlay, err := detectFile(args[0])
		if err != nil {
			return err
		}

		var name string
		if detectOut != "" {
			name = detectOut
			err = overlay.SaveBMP(name)
		} else {
			var stg *storage.Storage
			if stg, err = storage.New(cfg.Storage.Dir); err != nil {
				return err
			}
			if name, err = stg.SaveOverlay(res.Method, overlay); err == nil {
				_, err = stg.SaveCorners(res)
				name = stg.Path(name)
			}
		}
		if err != nil {
			return err
		}
		logger.Infof("%s: %d %s corners, overlay saved to %s", args[0], len(res.Corners), res.Method, name)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Corners)
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectOut, "out", "o", "", "write the overlay to this BMP instead of the result directory")
	rootCmd.AddCommand(detectCmd)
}

func detectFile(path string) (session.Result, *rawimage.Image, error) {
	rgb, err := rawimage.Load(path, 3)
	if err != nil {
		return session.Result{}, nil, err
	}
	gray := rawimage.New(rgb.Width, rgb.Height, 1)
	if err := rgb.MakeMonochrome(gray); err != nil {
		return session.Result{}, nil, err
	}

	det, err := newDetector(cfg.Detector)
	if err != nil {
		return session.Result{}, nil, err
	}
	det.SetImage(gray)
	corners, err := det.Corners()
	if err != nil {
		return session.Result{}, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return session.Result{
		Method:  det.Strategy().Name(),
		Corners: corners,
	}, det.Display(), nil
}
