package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"github.com/vitalcall/consult/internal/shared"
)

// CSVStore keeps each table in a UTF-8 CSV file with a header line.
type CSVStore struct {
	dir   string
	locks tableLocks
}

// NewCSV creates a CSV-backed store rooted at dir. Files are created lazily.
func NewCSV(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

func (s *CSVStore) path(t Table) string {
	return filepath.Join(s.dir, t.File)
}

// ensure creates the table file with its header if it does not exist yet.
func (s *CSVStore) ensure(t Table) error {
	p := s.path(t)
	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", p, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := encode(t, nil)
	if err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	return nil
}

// ReadAll returns every row of t in file order.
func (s *CSVStore) ReadAll(_ context.Context, t Table) ([]Row, error) {
	if err := s.ensure(t); err != nil {
		return nil, shared.Internal("prepare "+t.Name+" table", err)
	}
	return s.read(t), nil
}

func (s *CSVStore) read(t Table) []Row {
	f, err := os.Open(s.path(t))
	if err != nil {
		return degradeRead(t, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}
	}
	if err != nil {
		return degradeRead(t, err)
	}

	rows := []Row{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return degradeRead(t, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteAll atomically replaces the file contents with rows.
func (s *CSVStore) WriteAll(_ context.Context, t Table, rows []Row) error {
	unlock := s.locks.lock(t.Name)
	defer unlock()
	return s.write(t, rows)
}

func (s *CSVStore) write(t Table, rows []Row) error {
	if err := s.ensure(t); err != nil {
		return shared.Internal("prepare "+t.Name+" table", err)
	}
	data, err := encode(t, rows)
	if err != nil {
		return shared.Internal("encode "+t.Name+" table", err)
	}
	if err := atomicwriter.WriteFile(s.path(t), data, 0o644); err != nil {
		return shared.Internal("write "+t.Name+" table", err)
	}
	return nil
}

// Append adds row to the end of the file.
func (s *CSVStore) Append(_ context.Context, t Table, row Row) error {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	if err := s.ensure(t); err != nil {
		return shared.Internal("prepare "+t.Name+" table", err)
	}
	f, err := os.OpenFile(s.path(t), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return shared.Internal("open "+t.Name+" table", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(record(t, row)); err != nil {
		_ = f.Close()
		return shared.Internal("append "+t.Name+" row", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return shared.Internal("append "+t.Name+" row", err)
	}
	if err := f.Close(); err != nil {
		return shared.Internal("close "+t.Name+" table", err)
	}
	return nil
}

// Update performs a locked read-modify-write of t.
func (s *CSVStore) Update(_ context.Context, t Table, fn func(rows []Row) ([]Row, error)) error {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	if err := s.ensure(t); err != nil {
		return shared.Internal("prepare "+t.Name+" table", err)
	}
	rows, err := fn(s.read(t))
	if err != nil {
		return err
	}
	return s.write(t, rows)
}

// Ping makes sure every table file exists.
func (s *CSVStore) Ping(_ context.Context) error {
	for _, t := range Tables {
		if err := s.ensure(t); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *CSVStore) Close() error { return nil }

func record(t Table, row Row) []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = row[f]
	}
	return out
}

func encode(t Table, rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Fields); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(record(t, row)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
