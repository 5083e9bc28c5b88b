package csvlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sweeney/hestia/internal/board"
)

// Writer appends rows to a stream or to a daily file.
type Writer struct {
	raw  bool
	crlf bool

	// stream output
	out       io.Writer
	wroteHead bool

	// file output
	dir string
}

// NewStreamWriter writes LF-terminated rows to out, with a header first.
func NewStreamWriter(out io.Writer, raw bool) *Writer {
	return &Writer{out: out, raw: raw}
}

// NewFileWriter appends CRLF-terminated rows to dir/uts-data-YYYY-MM-DD.csv,
// or uts-data-YYYY-MM-DD-raw.csv for raw logs. The header is written when a
// file is created.
func NewFileWriter(dir string, raw bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Writer{dir: dir, raw: raw, crlf: true}, nil
}

// FileName returns the log file name for the day of ts.
func FileName(ts time.Time, raw bool) string {
	suffix := ""
	if raw {
		suffix = "-raw"
	}
	return fmt.Sprintf("uts-data-%s%s.csv", ts.UTC().Format("2006-01-02"), suffix)
}

// Path returns the file the row for ts goes to, or "" for stream output.
func (w *Writer) Path(ts time.Time) string {
	if w.dir == "" {
		return ""
	}
	return filepath.Join(w.dir, FileName(ts, w.raw))
}

func (w *Writer) headers() []string {
	if w.raw {
		return RawHeaders
	}
	return DisplayHeaders
}

func (w *Writer) format(ts time.Time, r *board.Reading) []string {
	if w.raw {
		return FormatRaw(ts, r)
	}
	return FormatDisplay(ts, r)
}

// Write appends one row per reading, all stamped ts. Nil readings (absent
// boards) are skipped.
func (w *Writer) Write(ts time.Time, readings ...*board.Reading) error {
	var rows [][]string
	for _, r := range readings {
		if r != nil {
			rows = append(rows, w.format(ts, r))
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if w.dir == "" {
		if !w.wroteHead {
			rows = append([][]string{w.headers()}, rows...)
			w.wroteHead = true
		}
		return w.writeRows(w.out, rows)
	}

	path := w.Path(ts)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if isNew {
		rows = append([][]string{w.headers()}, rows...)
	}
	if err := w.writeRows(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) writeRows(out io.Writer, rows [][]string) error {
	cw := csv.NewWriter(out)
	cw.UseCRLF = w.crlf
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
