package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/database"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

// BackupData is the export format: every table's rows keyed by table name.
type BackupData map[string][]map[string]interface{}

type ImportResult struct {
	Tables  []string       `json:"tables"`
	Rows    map[string]int `json:"rows"`
	Skipped []string       `json:"skipped,omitempty"`
}

// Columns holding JSON documents. They are exported as nested JSON rather
// than as escaped strings.
var jsonColumns = map[string]bool{
	"plu_codes":         true,
	"packaging_options": true,
	"outputs":           true,
	"details":           true,
}

// BackupService dumps and restores whole tables with plain SQL through sqlx,
// bypassing the models so that any row shape in a backup file round-trips.
type BackupService struct {
	db       *gorm.DB
	storage  *StorageService
	recorder *Recorder
}

func NewBackupService(db *gorm.DB, storage *StorageService, recorder *Recorder) *BackupService {
	return &BackupService{db: db, storage: storage, recorder: recorder}
}

func (s *BackupService) sqlxDB() (*sqlx.DB, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	driverName := "sqlite3"
	if database.Driver(s.db) == database.DriverPostgres {
		driverName = "postgres"
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}

// Export reads the actor's shop: its own rows of every shop table plus the
// global settings tables. Secret columns are left out.
func (s *BackupService) Export(ctx context.Context, actor permissions.Actor) (BackupData, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	x, err := s.sqlxDB()
	if err != nil {
		return nil, err
	}

	data := make(BackupData, len(database.Tables))
	for _, t := range database.Tables {
		rows, err := exportTable(ctx, x, t, actor.ShopID)
		if err != nil {
			return nil, err
		}
		data[t.Name] = rows
	}
	return data, nil
}

func exportTable(ctx context.Context, x *sqlx.DB, t database.Table, shopID uuid.UUID) ([]map[string]interface{}, error) {
	table := t.Name
	query, args := fmt.Sprintf("SELECT * FROM %s", pq.QuoteIdentifier(table)), []interface{}{}
	if t.ScopeColumn != "" {
		query += fmt.Sprintf(" WHERE %s = ?", pq.QuoteIdentifier(t.ScopeColumn))
		args = append(args, shopID.String())
	}
	query += " ORDER BY created_at"

	rows, err := x.QueryxContext(ctx, x.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", table, err)
	}
	defer rows.Close()

	out := []map[string]interface{}{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		for col, v := range row {
			if t.IsSecret(col) {
				delete(row, col)
				continue
			}
			row[col] = exportValue(col, v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return out, nil
}

func exportValue(column string, v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		return exportValue(column, string(val))
	case string:
		if jsonColumns[column] && json.Valid([]byte(val)) {
			return json.RawMessage(val)
		}
		return val
	default:
		return val
	}
}

// ParseBackup decodes an export file. Numbers are kept as json.Number so
// prices and quantities keep their exact digits.
func ParseBackup(raw []byte) (BackupData, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data BackupData
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no tables", ErrInvalidBackup)
	}
	for name := range data {
		if _, ok := database.LookupTable(name); !ok {
			return nil, fmt.Errorf("%w: unknown table %q", ErrInvalidBackup, name)
		}
	}
	return data, nil
}

// Import replaces the actor's shop rows of every table present in data.
// Tables are cleared children first and refilled parents first, all in one
// transaction. Tables missing from data are left alone, and so are other
// shops: imported rows are rewritten to the actor's shop. Identity tables
// are reported as skipped.
func (s *BackupService) Import(ctx context.Context, actor permissions.Actor, data BackupData) (*ImportResult, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}

	var (
		present []database.Table
		skipped []string
	)
	columns := make(map[string]map[string]bool)
	for _, t := range database.Tables {
		if _, ok := data[t.Name]; !ok {
			continue
		}
		if t.Identity {
			skipped = append(skipped, t.Name)
			continue
		}
		present = append(present, t)
		cols, err := s.tableColumns(t)
		if err != nil {
			return nil, err
		}
		columns[t.Name] = cols
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%w: no known tables", ErrInvalidBackup)
	}

	x, err := s.sqlxDB()
	if err != nil {
		return nil, err
	}
	tx, err := x.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for i := len(present) - 1; i >= 0; i-- {
		t := present[i]
		query, args := "DELETE FROM "+pq.QuoteIdentifier(t.Name), []interface{}{}
		if t.ScopeColumn != "" {
			query += fmt.Sprintf(" WHERE %s = ?", pq.QuoteIdentifier(t.ScopeColumn))
			args = append(args, actor.ShopID.String())
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", t.Name, err)
		}
	}

	result := &ImportResult{Rows: make(map[string]int, len(present)), Skipped: skipped}
	for _, t := range present {
		for _, row := range data[t.Name] {
			if t.ScopeColumn != "" {
				row[t.ScopeColumn] = actor.ShopID.String()
			}
			if err := insertRow(ctx, tx, t.Name, columns[t.Name], row); err != nil {
				return nil, err
			}
		}
		result.Tables = append(result.Tables, t.Name)
		result.Rows[t.Name] = len(data[t.Name])
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	logrus.WithField("tables", result.Tables).Info("Backup imported")
	s.recorder.Audit(ctx, actor, models.ActionDataImported, models.JSONB{
		"tables": result.Tables,
		"rows":   result.Rows,
	})
	return result, nil
}

func (s *BackupService) tableColumns(t database.Table) (map[string]bool, error) {
	types, err := s.db.Migrator().ColumnTypes(t.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", t.Name, err)
	}
	cols := make(map[string]bool, len(types))
	for _, ct := range types {
		cols[ct.Name()] = true
	}
	return cols, nil
}

// insertRow writes one exported row. Columns the table does not have are
// dropped so older exports still load.
func insertRow(ctx context.Context, tx *sqlx.Tx, table string, known map[string]bool, row map[string]interface{}) error {
	names := make([]string, 0, len(row))
	for col := range row {
		if known[col] {
			names = append(names, col)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: row in %s has no known columns", ErrInvalidBackup, table)
	}
	sort.Strings(names)

	quoted := make([]string, len(names))
	args := make([]interface{}, len(names))
	for i, col := range names {
		quoted[i] = pq.QuoteIdentifier(col)
		v, err := importValue(row[col])
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrInvalidBackup, table, col, err)
		}
		args[i] = v
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func importValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val, nil
	case json.Number:
		return val.String(), nil
	case json.RawMessage:
		return string(val), nil
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

// ArchiveToS3 exports everything and stores the JSON in the backup bucket.
func (s *BackupService) ArchiveToS3(ctx context.Context, actor permissions.Actor) (*BackupArchive, error) {
	if !s.storage.Enabled() {
		return nil, ErrBackupDisabled
	}
	data, err := s.Export(ctx, actor)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	archive, err := s.storage.PutBackup(ctx, raw, time.Now())
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"key":  archive.Key,
		"size": archive.Size,
	}).Info("Backup archived")
	return archive, nil
}

func (s *BackupService) ListArchives(ctx context.Context, actor permissions.Actor) ([]BackupArchive, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	return s.storage.ListBackups(ctx)
}

// RestoreFromS3 imports a stored archive after verifying its checksum.
func (s *BackupService) RestoreFromS3(ctx context.Context, actor permissions.Actor, key string) (*ImportResult, error) {
	if !actor.IsManager() {
		return nil, ErrManagerOnly
	}
	raw, err := s.storage.GetBackup(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := ParseBackup(raw)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, actor, data)
}
