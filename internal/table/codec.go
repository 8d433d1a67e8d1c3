package table

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is an on-disk table encoding.
type Format string

const (
	// CSV is delimited text: readable, lossy for nested values.
	CSV Format = "csv"
	// Parquet is columnar binary: typed and lossless. Preferred.
	Parquet Format = "parquet"
)

// Formats lists every supported format, preferred first.
var Formats = []Format{Parquet, CSV}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")) {
	case CSV:
		return CSV, nil
	case Parquet:
		return Parquet, nil
	}
	return "", eris.Errorf("table: unknown format %q", s)
}

var (
	// ErrNotFound is returned when a path to read does not exist.
	ErrNotFound = eris.New("table: not found")
	// ErrIOFailure is returned when a destination cannot be written.
	ErrIOFailure = eris.New("table: io failure")
)

// Write encodes t to path. The file is written next to its destination under a
// temporary name and renamed into place, so readers never see a partial file.
func Write(t *Table, path string, format Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(ErrIOFailure, "create %s: %v", path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	switch format {
	case CSV:
		err = WriteCSV(bw, t)
	case Parquet:
		err = WriteParquet(bw, t)
	default:
		err = eris.Errorf("table: unknown format %q", format)
	}
	if err != nil {
		tmp.Close()
		return eris.Wrapf(err, "write %s", path)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return eris.Wrapf(ErrIOFailure, "flush %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(ErrIOFailure, "close %s: %v", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return eris.Wrapf(ErrIOFailure, "rename into %s: %v", path, err)
	}
	committed = true
	return nil
}

// WriteAll writes t to base+ext for each format.
func WriteAll(t *Table, base string, formats ...Format) error {
	for _, f := range formats {
		if err := Write(t, base+f.Ext(), f); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes the table stored at path.
func Read(path string, format Format) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "%s", path)
		}
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	switch format {
	case CSV:
		t, err := ReadCSV(bufio.NewReader(file))
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		return t, nil
	case Parquet:
		info, err := file.Stat()
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", path)
		}
		t, err := ReadParquet(file, info.Size())
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		return t, nil
	}
	return nil, eris.Errorf("table: unknown format %q", format)
}
