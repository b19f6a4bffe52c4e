package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
	"github.com/Krimson/dts-viewer/viewer/internal/window"
)

// SelectWindow returns the export window for anchor. The display window of
// exp is never modified.
func SelectWindow(exp *experiment.Experiment, anchor window.Anchor) window.Window {
	if anchor == window.AnchorRiseStart {
		w := exp.WindowSamples()
		return window.SelectRiseStart(
			exp.Summary(experiment.SlotMachinePrimary),
			exp.Summary(experiment.SlotHeadPrimary),
			window.ExportPadding(w),
			w,
		)
	}
	return exp.ActiveWindow()
}

// Artifacts describes one completed export.
type Artifacts struct {
	ExperimentID string        `json:"experiment_id"`
	Label        string        `json:"label"`
	Anchor       string        `json:"anchor"`
	Window       window.Window `json:"window"`
	Dir          string        `json:"dir"`
	Raw          string        `json:"raw"`
	Filtered     string        `json:"filtered"`
	Summary      string        `json:"summary"`
	Parquet      string        `json:"parquet,omitempty"`
	Rows         []SummaryRow  `json:"rows"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Files lists the written artifact paths.
func (a Artifacts) Files() []string {
	files := []string{a.Raw, a.Filtered, a.Summary}
	if a.Parquet != "" {
		files = append(files, a.Parquet)
	}
	return files
}

// Options control the exporter.
type Options struct {
	Parquet     bool
	SinkTimeout time.Duration
}

// Exporter writes windowed series and summaries of an experiment to disk and
// hands the result to its sinks.
type Exporter struct {
	opts   Options
	sink   Sink
	logger *zap.Logger
}

func NewExporter(opts Options, logger *zap.Logger, sinks ...Sink) *Exporter {
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 5 * time.Second
	}
	logger = logging.OrNop(logger).Named("export")
	return &Exporter{
		opts:   opts,
		sink:   NewCompositeSink(logger, sinks...),
		logger: logger,
	}
}

// Export validates anchor, then writes <label>_raw.csv, <label>_filtered.csv
// and <label>_summary.csv into dir. An invalid anchor fails before any file is
// touched. Sink failures are logged and do not fail the export.
func (e *Exporter) Export(ctx context.Context, exp *experiment.Experiment, dir, anchor string) (Artifacts, error) {
	a, err := window.ParseAnchor(anchor)
	if err != nil {
		return Artifacts{}, err
	}
	if exp == nil {
		return Artifacts{}, fmt.Errorf("export: no experiment")
	}

	w := SelectWindow(exp, a)
	base := filepath.Join(dir, exp.Label())
	art := Artifacts{
		ExperimentID: exp.ID(),
		Label:        exp.Label(),
		Anchor:       a.String(),
		Window:       w,
		Dir:          dir,
		Raw:          base + RawSuffix,
		Filtered:     base + FilteredSuffix,
		Summary:      base + SummarySuffix,
		Rows:         SummaryRows(exp),
		CreatedAt:    time.Now().UTC(),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create export dir: %w", err)
	}

	raw, err := collect(exp, exp.Raw)
	if err != nil {
		return Artifacts{}, err
	}
	if err := writeSeries(art.Raw, raw, w, exp.SampleRate()); err != nil {
		return Artifacts{}, fmt.Errorf("write raw: %w", err)
	}

	filtered, err := collect(exp, exp.Filtered)
	if err != nil {
		return Artifacts{}, err
	}
	if err := writeSeries(art.Filtered, filtered, w, exp.SampleRate()); err != nil {
		return Artifacts{}, fmt.Errorf("write filtered: %w", err)
	}

	if err := writeSummary(art.Summary, art.Rows); err != nil {
		return Artifacts{}, fmt.Errorf("write summary: %w", err)
	}

	if e.opts.Parquet {
		art.Parquet = base + ParquetSuffix
		if err := writeParquet(art.Parquet, art.Rows); err != nil {
			return Artifacts{}, fmt.Errorf("write parquet: %w", err)
		}
	}

	e.logger.Info("experiment exported",
		zap.String("experiment", art.ExperimentID),
		zap.String("anchor", art.Anchor),
		zap.Stringer("window", w),
		zap.String("dir", dir),
	)

	sinkCtx, cancel := context.WithTimeout(ctx, e.opts.SinkTimeout)
	defer cancel()
	_ = e.sink.Consume(sinkCtx, art)

	return art, nil
}

// SummaryRows returns the tracked summaries in export order.
func SummaryRows(exp *experiment.Experiment) []SummaryRow {
	rows := make([]SummaryRow, 0, len(experiment.Slots))
	for _, slot := range experiment.Slots {
		rows = append(rows, newSummaryRow(slot.Name(), exp.Summary(slot)))
	}
	return rows
}

func collect(exp *experiment.Experiment, get func(channel.Name) ([]float64, error)) ([][]float64, error) {
	names := SeriesNames()
	out := make([][]float64, len(names))
	for i, n := range names {
		data, err := get(n)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func writeSeries(path string, cols [][]float64, w window.Window, rate float64) error {
	n := len(cols[0])
	for _, c := range cols[1:] {
		if len(c) < n {
			n = len(c)
		}
	}
	start, end := w.Clamp(n)
	msPerSample := 1000 / rate

	return writeCSV(path, func(cw *csv.Writer) error {
		if err := cw.Write(SeriesColumns()); err != nil {
			return err
		}
		row := make([]string, len(cols)+1)
		for abs := start; abs < end; abs++ {
			row[0] = strconv.FormatFloat(float64(abs-w.Start)*msPerSample, 'f', -1, 64)
			for i, c := range cols {
				row[i+1] = formatFloat(c[abs])
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSummary(path string, rows []SummaryRow) error {
	return writeCSV(path, func(cw *csv.Writer) error {
		if err := cw.Write(SummaryColumns); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write(r.Record()); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := fill(cw); err != nil {
		f.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeParquet(path string, rows []SummaryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	pw := parquet.NewGenericWriter[SummaryRow](f)
	if _, err := pw.Write(rows); err != nil {
		f.Close()
		return err
	}
	if err := pw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
