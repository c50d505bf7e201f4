// internal/store/csvlog.go
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/tamzrod/labelstation/internal/frame"
)

// ErrPersistence wraps every log/archive write failure.
var ErrPersistence = errors.New("store: persistence failed")

// Status values of the STATUS column.
const (
	StatusPrinted = "Printed"
	StatusError   = "Error"
	StatusSkipped = "Skipped"
)

// Header is the fixed column order. Reporting tools depend on it.
var Header = []string{
	"STC",
	"SERIAL_NUMBER",
	"IMEI",
	"IMSI",
	"CCID",
	"MAC_ADDRESS",
	"STATUS",
	"TIMESTAMP",
	"ZPL_FILE",
	"RAW_DATA",
	"PCB_STATUS",
}

// Row is one processed device.
type Row struct {
	Record    frame.DeviceRecord
	Status    string
	ZPLFile   string
	PCBStatus string
}

func (r Row) values() []string {
	stc := ""
	if r.Record.STC > 0 {
		stc = strconv.Itoa(r.Record.STC)
	}
	return []string{
		stc,
		r.Record.SerialNumber,
		r.Record.IMEI,
		r.Record.IMSI,
		r.Record.CCID,
		r.Record.MACAddress,
		r.Status,
		r.Record.Timestamp,
		r.ZPLFile,
		r.Record.Raw,
		r.PCBStatus,
	}
}

// CSVLog is the append-only record log.
// The file is opened and closed on every append.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVLog creates the parent directory and writes the header
// if the file does not exist yet.
func NewCSVLog(path string) (*CSVLog, error) {
	l := &CSVLog{path: path}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir: %v", ErrPersistence, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := l.open()
	if err != nil {
		return nil, err
	}
	return l, f.Close()
}

// Path returns the log file location.
func (l *CSVLog) Path() string {
	return l.path
}

// open appends to the log, writing the header into an empty file.
func (l *CSVLog) open() (*os.File, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrPersistence, l.path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrPersistence, l.path, err)
	}
	if st.Size() == 0 {
		w := csv.NewWriter(f)
		_ = w.Write(Header)
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: header: %v", ErrPersistence, err)
		}
	}
	return f, nil
}

// Append writes one row.
func (l *CSVLog) Append(r Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	_ = w.Write(r.values())
	w.Flush()
	werr := w.Error()
	cerr := f.Close()

	if werr != nil {
		return fmt.Errorf("%w: append: %v", ErrPersistence, werr)
	}
	if cerr != nil {
		return fmt.Errorf("%w: close: %v", ErrPersistence, cerr)
	}
	return nil
}

// MaxSTC scans the STC column for the highest positive integer.
// A missing file is not an error.
func (l *CSVLog) MaxSTC() (int, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: open %s: %v", ErrPersistence, l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: header: %v", ErrPersistence, err)
	}

	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "STC") {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, false, nil
	}

	max, found := 0, false
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// a torn last line from an abrupt stop must not block recovery
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return 0, false, fmt.Errorf("%w: read: %v", ErrPersistence, err)
		}
		if col >= len(rec) {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(rec[col]))
		if err != nil || v <= 0 {
			continue
		}
		if v > max {
			max = v
		}
		found = true
	}

	return max, found, nil
}

// Rows reads every logged row as raw column values, header excluded.
func (l *CSVLog) Rows() ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrPersistence, l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrPersistence, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil
}
