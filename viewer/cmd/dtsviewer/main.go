// dtsviewer loads DTS impact recordings, shows the event window of the head and
// machine channels and exports the window to CSV.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/config"
	"github.com/Krimson/dts-viewer/viewer/internal/cursor"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/export"
	"github.com/Krimson/dts-viewer/viewer/internal/figure"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
	"github.com/Krimson/dts-viewer/viewer/internal/recording"
	"github.com/Krimson/dts-viewer/viewer/internal/session"
	"github.com/Krimson/dts-viewer/viewer/internal/signal"
	"github.com/Krimson/dts-viewer/viewer/internal/synth"
)

var version = "dev"

// @title DTS Viewer API
// @version 1.0
// @description Loads impact recordings, shows the event window per axis and exports CSV.
// @host localhost:8080
// @BasePath /
// @schemes http

func main() {
	root := &cobra.Command{
		Use:   "dtsviewer",
		Short: "Inspect and export DTS impact recordings",
		Long: `dtsviewer finds the machine and head events of a DTS impact recording,
selects a 1/8 s window around them and exports that window to CSV.

Settings come from the environment (HTTP_PORT, WINDOW_DIVISOR, REDIS_ADDR, ...).`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		serveCmd(),
		inspectCmd(),
		exportCmd(),
		generateCmd(),
	)

	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}

func detectorConfig(cfg *config.Config) signal.DetectorConfig {
	return signal.DetectorConfig{
		HeadPeakThreshold:    cfg.HeadPeakThreshold,
		MachinePeakThreshold: cfg.MachinePeakThreshold,
		RiseStdDevs:          cfg.RiseStdDevs,
		BaselineMS:           cfg.BaselineMS,
		FilterCutoffHz:       cfg.FilterCutoffHz,
	}
}

func sessionOptions(cfg *config.Config, logger *zap.Logger) session.Options {
	lock, err := cursor.ParseLockMode(cfg.CursorTracksData)
	if err != nil {
		logger.Warn("invalid CURSOR_TRACKS_DATA, tracking x", zap.String("value", cfg.CursorTracksData))
		lock = cursor.LockX
	}
	fig := figure.DefaultOptions()
	fig.Annotate = cfg.PlotAnnotate
	fig.UseBlit = cfg.CursorUseBlit
	fig.CursorLock = lock

	return session.Options{
		Experiment:  experiment.Options{WindowDivisor: cfg.WindowDivisor},
		Figure:      fig,
		ExportDir:   cfg.ExportDir,
		SinkTimeout: cfg.SinkTimeout,
	}
}

// newLocalManager builds a session without external sinks for one-shot commands.
func newLocalManager(cfg *config.Config, logger *zap.Logger) *session.Manager {
	exporter := export.NewExporter(export.Options{
		Parquet:     cfg.ExportParquet,
		SinkTimeout: cfg.SinkTimeout,
	}, logger)
	return session.NewManager(
		recording.TextReader{},
		signal.NewDetector(detectorConfig(cfg)),
		exporter,
		sessionOptions(cfg, logger),
		logger,
	)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <recording>",
		Short: "Print detected events and the display window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.New(cfg.LogLevel)
			defer logger.Sync()

			snap, err := newLocalManager(cfg, logger).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	}
}

func exportCmd() *cobra.Command {
	var dir string
	var anchor string

	cmd := &cobra.Command{
		Use:   "export <recording>",
		Short: "Write raw, filtered and summary CSV for a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.New(cfg.LogLevel)
			defer logger.Sync()

			m := newLocalManager(cfg, logger)
			if _, err := m.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			art, err := m.Export(cmd.Context(), dir, anchor)
			if err != nil {
				return err
			}
			for _, f := range art.Files() {
				fmt.Println(f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default EXPORT_DIR)")
	cmd.Flags().StringVar(&anchor, "anchor", "peak", "window anchor: peak or rise_start")
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		rate        float64
		samples     int
		machinePeak int
		headPeak    int
		halfWidth   int
		noise       float64
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "generate <output>",
		Short: "Write a synthetic recording with one machine and one head event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := synth.Generate(synth.Config{
				SampleRateHz: rate,
				Samples:      samples,
				Events: map[channel.Name]synth.Event{
					channel.MachRotPri: {Peak: machinePeak, HalfWidth: halfWidth, Amplitude: 40},
					channel.HeadRotCor: {Peak: headPeak, HalfWidth: halfWidth, Amplitude: 30},
				},
				Noise: noise,
				Seed:  seed,
			})
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := recording.Encode(f, rec); err != nil {
				f.Close()
				return fmt.Errorf("encode %s: %w", args[0], err)
			}
			return f.Close()
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 8000, "sample rate in Hz")
	cmd.Flags().IntVar(&samples, "samples", 8000, "samples per channel")
	cmd.Flags().IntVar(&machinePeak, "machine-peak", 3000, "machine event apex index")
	cmd.Flags().IntVar(&headPeak, "head-peak", 3120, "head event apex index")
	cmd.Flags().IntVar(&halfWidth, "half-width", 100, "event half width in samples")
	cmd.Flags().Float64Var(&noise, "noise", 0.05, "peak-to-peak baseline noise")
	cmd.Flags().Int64Var(&seed, "seed", 1, "noise seed")
	return cmd
}
