package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// WriteCSV writes the frame with a Date first column. NaN becomes an empty
// cell.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"Date"}, f.order...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for i, d := range f.dates {
		row[0] = d.Format(dateLayout)
		for j, name := range f.order {
			v := f.cols[name][i]
			if math.IsNaN(v) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the frame to a CSV file, creating parent directories.
func (f *Frame) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()
	return f.WriteCSV(file)
}

// ReadCSV parses a frame written by WriteCSV. Empty cells become NaN.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header")
	}
	header := records[0]
	if len(header) < 1 || header[0] != "Date" {
		return nil, fmt.Errorf("first column must be Date, got %q", header[0])
	}

	rows := records[1:]
	dates := make([]time.Time, len(rows))
	for i, rec := range rows {
		d, err := time.ParseInLocation(dateLayout, rec[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse date %q: %w", i+1, rec[0], err)
		}
		dates[i] = d
	}

	f := New(dates)
	if f.Len() != len(rows) {
		return nil, fmt.Errorf("csv has duplicate dates")
	}
	pos := f.indexOf(dates)
	for j := 1; j < len(header); j++ {
		vals := nanSlice(len(rows))
		for i, rec := range rows {
			if j >= len(rec) || rec[j] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", i+1, header[j], err)
			}
			vals[pos[i]] = v
		}
		f.SetColumn(header[j], vals)
	}
	return f, nil
}

// ReadFile loads a frame from a CSV file.
func ReadFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return ReadCSV(file)
}
