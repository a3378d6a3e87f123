// Package store persists device messages and decoded records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/sink"
	"github.com/thermostart/otdecode/pkg/version"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store provides SQLite persistence for device messages and their decoded
// records.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *slog.Logger
	schema *version.SchemaManifest
	upsert string
	query  string
}

// Open opens the database at path and creates missing tables.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	schema, err := version.LoadCurrentSchema()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db, schema: schema}
	s.upsert, s.query = s.statements()

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger used for rows that cannot be read.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS device_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_hardware_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_device_messages_device ON device_messages(device_hardware_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(parsedTableDDL(s.schema)); err != nil {
		return err
	}
	_, err := s.db.Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%[1]s_device ON %[1]s(device_hardware_id, timestamp)`,
		s.schema.Table))
	return err
}

func parsedTableDDL(m *version.SchemaManifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", m.Table)
	for i, c := range m.Columns {
		fmt.Fprintf(&b, "\t%s %s", quoteIdent(c.Name), sqlType(c))
		if c.Name == "id" {
			b.WriteString(" PRIMARY KEY")
		} else if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		if i < len(m.Columns)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(")")
	return b.String()
}

// quoteIdent quotes a column name. Some OpenTherm auxiliary keys ("to")
// are SQL keywords.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

func sqlType(c version.ColumnDef) string {
	switch c.Type {
	case version.TypeInteger:
		return "INTEGER"
	case version.TypeReal:
		return "REAL"
	case version.TypeDateTime:
		return "DATETIME"
	case version.TypeText:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}

func (s *Store) statements() (upsert, query string) {
	cols := quoteIdents(s.schema.ColumnNames())
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var updates []string
	for _, c := range cols {
		if c != `"id"` {
			updates = append(updates, c+" = excluded."+c)
		}
	}

	upsert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		s.schema.Table, strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))
	query = fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(cols, ", "), s.schema.Table)
	return upsert, query
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertDeviceMessage stores a raw message and returns its ID.
func (s *Store) InsertDeviceMessage(ctx context.Context, device string, ts time.Time, msg message.RawMessage) (int64, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}
	return s.InsertDeviceMessageJSON(ctx, device, ts, payload)
}

// InsertDeviceMessageJSON stores a message payload as-is and returns its ID.
func (s *Store) InsertDeviceMessageJSON(ctx context.Context, device string, ts time.Time, payload []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO device_messages (device_hardware_id, timestamp, message)
		VALUES (?, ?, ?)
	`, device, ts.UTC(), string(payload))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeviceMessages returns up to limit messages with an ID above afterID in
// ID order. A message whose payload cannot be parsed is returned with a
// nil Message.
func (s *Store) DeviceMessages(ctx context.Context, afterID int64, limit int) ([]message.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_hardware_id, timestamp, message
		FROM device_messages
		WHERE id > ?
		ORDER BY id
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []message.StoredMessage
	for rows.Next() {
		var m message.StoredMessage
		var payload sql.NullString
		if err := rows.Scan(&m.ID, &m.DeviceHardwareID, &m.Timestamp, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			raw, err := message.ParseRawMessage([]byte(payload.String))
			if err != nil {
				s.log().Warn("unreadable device message",
					slog.Int64("msg_id", m.ID),
					slog.String("device_id", m.DeviceHardwareID),
					slog.Any("error", err),
				)
			} else {
				m.Message = raw
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountDeviceMessages returns the number of stored device messages.
func (s *Store) CountDeviceMessages(ctx context.Context) (int64, error) {
	return s.count(ctx, "device_messages")
}

// CountParsed returns the number of stored decoded records.
func (s *Store) CountParsed(ctx context.Context) (int64, error) {
	return s.count(ctx, s.schema.Table)
}

func (s *Store) count(ctx context.Context, table string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

// SaveParsed inserts rec, replacing an existing row with the same ID.
func (s *Store) SaveParsed(ctx context.Context, rec message.Record) error {
	if rec.ID == 0 {
		return fmt.Errorf("store: record without id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.upsert, rec.Values()...)
	if err != nil {
		return fmt.Errorf("store: save record %d: %w", rec.ID, err)
	}
	return nil
}

// ParsedMessage returns the decoded record with the given ID.
func (s *Store) ParsedMessage(ctx context.Context, id int64) (message.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := s.schema.ColumnNames()
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	err := s.db.QueryRowContext(ctx, s.query, id).Scan(ptrs...)
	if err == sql.ErrNoRows {
		return message.Record{}, ErrNotFound
	}
	if err != nil {
		return message.Record{}, err
	}

	fields := make(map[string]any, len(cols))
	for i, c := range cols {
		fields[c] = vals[i]
	}
	return message.RecordFromFields(fields)
}

// PurgeResult counts the rows removed by PurgeOlderThan.
type PurgeResult struct {
	DeviceMessages int64
	ParsedMessages int64
}

// PurgeOlderThan deletes device messages and decoded records with a
// timestamp before cutoff. Both tables are purged in one transaction.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (PurgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PurgeResult{}, err
	}
	defer tx.Rollback()

	var res PurgeResult
	for _, t := range []struct {
		table string
		n     *int64
	}{
		{"device_messages", &res.DeviceMessages},
		{s.schema.Table, &res.ParsedMessages},
	} {
		r, err := tx.ExecContext(ctx,
			"DELETE FROM "+t.table+" WHERE julianday(timestamp) < julianday(?)", cutoff.UTC())
		if err != nil {
			return PurgeResult{}, fmt.Errorf("store: purge %s: %w", t.table, err)
		}
		if *t.n, err = r.RowsAffected(); err != nil {
			return PurgeResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return PurgeResult{}, err
	}
	s.log().Info("purged old messages",
		slog.Time("cutoff", cutoff),
		slog.Int64("device_messages", res.DeviceMessages),
		slog.Int64("parsed_messages", res.ParsedMessages),
	)
	return res, nil
}

// Write implements sink.Sink by saving the record.
func (s *Store) Write(ctx context.Context, rec message.Record) error {
	return s.SaveParsed(ctx, rec)
}

var _ sink.Sink = (*Store)(nil)
