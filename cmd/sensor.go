package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"cornercam/pkg/ov7670"
)

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Reset and program the OV7670 sensor over I²C",
	RunE: func(cmd *cobra.Command, args []string) error {
		return programSensor(cfg.Sensor.Bus)
	},
}

func init() {
	sensorCmd.Flags().StringVar(&flags.Sensor.Bus, "bus", "", "I²C bus of the sensor, empty for the first one")
	rootCmd.AddCommand(sensorCmd)
}

func programSensor(busName string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	defer bus.Close()

	dev := ov7670.New(bus)
	if err := dev.Reset(); err != nil {
		return err
	}
	id, err := dev.ReadID()
	if err != nil {
		return err
	}
	logger.Infof("%s: found %s", dev, id)
	if err := dev.Configure(nil); err != nil {
		return err
	}
	logger.Infof("%s: wrote %d registers", dev, len(ov7670.DefaultConfig))

	return nil
}
