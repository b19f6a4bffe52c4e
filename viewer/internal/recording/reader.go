package recording

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

// Reader parses a recording file into a Record.
type Reader interface {
	Parse(path string) (*channel.Record, error)
}

// TextReader reads the plain-text interchange layout:
//
//	sample_rate_hz,8000
//	head_rot_cor[rad/s],head_rot_sag[rad/s],...,mach_rot_pri[rad/s]
//	0.01,0.02,...
//
// The header must list the nine channels in record order. The engineering unit
// in brackets is optional.
type TextReader struct{}

func (TextReader) Parse(path string) (*channel.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording %s: %w", path, err)
	}
	defer file.Close()

	rec, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recording %s: %w", path, err)
	}
	return rec, nil
}

// Decode reads a recording in the text layout from r.
func Decode(r io.Reader) (*channel.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("recording has no data records")
	}

	rate, err := parseRate(records[0])
	if err != nil {
		return nil, err
	}

	header := records[1]
	if len(header) != channel.Count {
		return nil, fmt.Errorf("%w: header has %d columns", channel.ErrChannelCount, len(header))
	}

	chs := make([]*channel.Channel, channel.Count)
	for i, col := range header {
		name, eu := splitHeader(col)
		if name != channel.Names[i] {
			return nil, fmt.Errorf("column %d: expected %s, got %s", i, channel.Names[i], name)
		}
		chs[i] = &channel.Channel{
			Meta:    channel.Meta{SampleRateHz: rate, EU: eu},
			Samples: make([]float64, 0, len(records)-2),
		}
	}

	for i, row := range records[2:] {
		if len(row) != channel.Count {
			return nil, fmt.Errorf("invalid record at line %d: expected %d columns", i+3, channel.Count)
		}
		for c, field := range row {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value at line %d column %d: %w", i+3, c+1, err)
			}
			chs[c].Samples = append(chs[c].Samples, v)
		}
	}

	return channel.NewRecord(chs)
}

// Encode writes rec in the text layout. It is the inverse of Decode.
func Encode(w io.Writer, rec *channel.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"sample_rate_hz", strconv.FormatFloat(rec.SampleRate(), 'f', -1, 64)}); err != nil {
		return err
	}

	header := make([]string, channel.Count)
	for i, ch := range rec.Channels() {
		header[i] = string(ch.Name)
		if ch.Meta.EU != "" {
			header[i] += "[" + ch.Meta.EU + "]"
		}
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, channel.Count)
	for s := 0; s < rec.Len(); s++ {
		for i, ch := range rec.Channels() {
			row[i] = strconv.FormatFloat(ch.Samples[s], 'g', -1, 64)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseRate(row []string) (float64, error) {
	if len(row) < 2 || strings.TrimSpace(row[0]) != "sample_rate_hz" {
		return 0, fmt.Errorf("first line must be sample_rate_hz,<rate>")
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sample rate: %w", err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate: %v", rate)
	}
	return rate, nil
}

func splitHeader(col string) (channel.Name, string) {
	col = strings.TrimSpace(col)
	open := strings.IndexByte(col, '[')
	if open < 0 || !strings.HasSuffix(col, "]") {
		return channel.Name(col), ""
	}
	return channel.Name(col[:open]), col[open+1 : len(col)-1]
}
