// Package store provides the flat-table record store behind the patient
// registry and the conversation log.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/domain"
)

// Row is one record keyed by column name.
type Row = map[string]string

// Table describes a flat table: its name, backing file name for file-based
// backends, and canonical column order.
type Table struct {
	Name   string
	File   string
	Fields []string
}

var (
	// Patients holds one row per phone number.
	Patients = Table{Name: "patients", File: "db.csv", Fields: domain.PatientFields}
	// Conversations is the append-only call summary log.
	Conversations = Table{Name: "conversations", File: "convos.csv", Fields: domain.ConversationFields}
)

// Tables lists every table the service owns.
var Tables = []Table{Patients, Conversations}

// Store is an ordered flat-table store. Every mutating call on a table is
// serialized with the other mutating calls on that table.
type Store interface {
	// ReadAll returns every row in store order. Unreadable or corrupt
	// contents yield an empty slice; only a failure to create the table is
	// returned as an error.
	ReadAll(ctx context.Context, t Table) ([]Row, error)

	// WriteAll replaces the whole table.
	WriteAll(ctx context.Context, t Table, rows []Row) error

	// Append adds one row at the end without rewriting the table.
	Append(ctx context.Context, t Table, row Row) error

	// Update runs fn on the current rows and writes back its result while
	// holding the table's write lock, so read-modify-write cycles cannot
	// interleave.
	Update(ctx context.Context, t Table, fn func(rows []Row) ([]Row, error)) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Open builds the backend selected by cfg.StoreBackend.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		return NewSQLite(cfg.DBPath)
	case config.StoreCSV, "":
		return NewCSV(cfg.DataDir), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// tableLocks hands out one write mutex per table name.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *tableLocks) lock(name string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// degradeRead is the read-failure fallback: the failure is logged and the
// caller sees an empty table.
func degradeRead(t Table, err error) []Row {
	slog.Error("Failed to read table, treating as empty", "table", t.Name, "error", err)
	return []Row{}
}

// project copies row into a mapping holding exactly t's columns.
func project(t Table, row Row) Row {
	out := make(Row, len(t.Fields))
	for _, f := range t.Fields {
		out[f] = row[f]
	}
	return out
}
