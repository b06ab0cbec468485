package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/roadnet"
)

// --- roadsim mapgen ---

var (
	mapgenGrid     roadnet.GridConfig
	mapgenOut      string
	mapgenControls string
)

var mapgenCmd = &cobra.Command{
	Use:   "mapgen",
	Short: "Generate a grid road network YAML",
	Long:  "Generate a rows x cols grid city and write it as a road network YAML, optionally with its default control map.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := generateMap(mapgenGrid, mapgenOut, mapgenControls); err != nil {
			logrus.Fatalf("Map generation failed: %v", err)
		}
	},
}

// generateMap writes the grid to mapPath and, when controlsPath is set, the
// derived default controls next to it.
func generateMap(cfg roadnet.GridConfig, mapPath, controlsPath string) error {
	m, err := roadnet.NewGrid(cfg)
	if err != nil {
		return err
	}
	if err := roadnet.SaveMap(m, mapPath); err != nil {
		return fmt.Errorf("writing map: %w", err)
	}
	logrus.Infof("Wrote %s (%d lanes, %d turns, %d intersections) to %s",
		m.Name, len(m.Lanes), len(m.Turns), len(m.Intersections), mapPath)
	if controlsPath == "" {
		return nil
	}
	if err := control.SaveControlMap(control.NewControlMap(m), controlsPath); err != nil {
		return fmt.Errorf("writing controls: %w", err)
	}
	logrus.Infof("Wrote default controls to %s", controlsPath)
	return nil
}

func init() {
	mapgenCmd.Flags().IntVar(&mapgenGrid.Rows, "rows", 3, "Rows of intersections")
	mapgenCmd.Flags().IntVar(&mapgenGrid.Cols, "cols", 3, "Columns of intersections")
	mapgenCmd.Flags().Float64Var(&mapgenGrid.BlockLength, "block-length", 0, "Meters between intersections (0 = 100)")
	mapgenCmd.Flags().Float64Var(&mapgenGrid.SpeedLimit, "speed-limit", 0, "Driving speed limit in m/s (0 = 13.4)")
	mapgenCmd.Flags().BoolVar(&mapgenGrid.BikeLanes, "bike-lanes", false, "Add a biking lane per direction")
	mapgenCmd.Flags().StringVar(&mapgenOut, "out", "map.yaml", "Road network output file")
	mapgenCmd.Flags().StringVar(&mapgenControls, "controls-out", "", "Also write the default control map to this file")

	rootCmd.AddCommand(mapgenCmd)
}
