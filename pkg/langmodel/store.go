package langmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

// SetupSchema initializes the tables used by Store in the provided database.
// It is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaModels = `
CREATE TABLE IF NOT EXISTS langmodel_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    window_length INTEGER NOT NULL
);
`
		schemaWindows = `
CREATE TABLE IF NOT EXISTS langmodel_windows (
    window_id INTEGER PRIMARY KEY,
    window_text TEXT NOT NULL UNIQUE
);
`
		schemaStats = `
CREATE TABLE IF NOT EXISTS langmodel_stats (
    model_id INTEGER NOT NULL,
    window_id INTEGER NOT NULL,
    window_seq INTEGER NOT NULL,
    position INTEGER NOT NULL,
    char_text TEXT NOT NULL,
    frequency INTEGER NOT NULL,
    PRIMARY KEY (model_id, window_id, position)
);
`
		indexStats = `
CREATE INDEX IF NOT EXISTS langmodel_stats_order ON langmodel_stats (model_id, window_seq, position);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaModels); err != nil {
		return fmt.Errorf("could not create models schema: %w", err)
	}
	if _, err = tx.Exec(schemaWindows); err != nil {
		return fmt.Errorf("could not create windows schema: %w", err)
	}
	if _, err = tx.Exec(schemaStats); err != nil {
		return fmt.Errorf("could not create stats schema: %w", err)
	}
	if _, err = tx.Exec(indexStats); err != nil {
		return fmt.Errorf("could not create stats index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// ModelInfo holds the metadata of a stored model.
type ModelInfo struct {
	Id           int
	Name         string
	WindowLength int
}

// Store persists models in a SQLite database. It holds the database
// connection and the prepared statements it needs.
type Store struct {
	db                    *sql.DB
	stmtGetModelInfo      *sql.Stmt
	stmtGetModels         *sql.Stmt
	stmtGetOrInsertWindow *sql.Stmt
	stmtLoadStats         *sql.Stmt
	logger                *slog.Logger
}

// NewStore creates a Store on a database prepared with SetupSchema,
// returning an error if any statement fails to prepare.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetModelInfo, err := db.Prepare(`SELECT model_id, window_length FROM langmodel_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetModels, err := db.Prepare(`SELECT model_id, model_name, window_length FROM langmodel_models;`)
	if err != nil {
		return nil, err
	}

	stmtGetOrInsertWindow, err := db.Prepare(`INSERT INTO langmodel_windows (window_text) VALUES (?) ON CONFLICT(window_text) DO UPDATE SET window_text=excluded.window_text RETURNING window_id;`)
	if err != nil {
		return nil, err
	}

	stmtLoadStats, err := db.Prepare(`
SELECT w.window_text, s.char_text, s.frequency
FROM langmodel_stats s JOIN langmodel_windows w ON w.window_id = s.window_id
WHERE s.model_id = ?
ORDER BY s.window_seq, s.position;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                    db,
		stmtGetModelInfo:      stmtGetModelInfo,
		stmtGetModels:         stmtGetModels,
		stmtGetOrInsertWindow: stmtGetOrInsertWindow,
		stmtLoadStats:         stmtLoadStats,
		logger:                slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetModelInfo.Close()
	_ = s.stmtGetModels.Close()
	_ = s.stmtGetOrInsertWindow.Close()
	_ = s.stmtLoadStats.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// ModelInfos retrieves metadata for all stored models, keyed by name.
func (s *Store) ModelInfos(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var info ModelInfo
		if err = rows.Scan(&info.Id, &info.Name, &info.WindowLength); err != nil {
			return nil, err
		}
		models[info.Name] = info
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// ModelInfo retrieves the metadata of a single stored model. It returns an
// error wrapping sql.ErrNoRows if no model has that name.
func (s *Store) ModelInfo(ctx context.Context, name string) (ModelInfo, error) {
	info := ModelInfo{Name: name}
	err := s.stmtGetModelInfo.QueryRowContext(ctx, name).Scan(&info.Id, &info.WindowLength)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not get model '%s': %w", name, err)
	}
	return info, nil
}

// SaveModel stores the counts of m under name, replacing any model already
// stored with that name. Window and entry order are preserved. The whole
// operation runs in a single transaction.
func (s *Store) SaveModel(ctx context.Context, name string, m *Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var modelID int
	err = tx.QueryRowContext(ctx, "SELECT model_id FROM langmodel_models WHERE model_name = ?", name).Scan(&modelID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, "INSERT INTO langmodel_models (model_name, window_length) VALUES (?, ?)", name, m.windowLength)
		if err != nil {
			return fmt.Errorf("failed to insert model '%s': %w", name, err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read id of model '%s': %w", name, err)
		}
		modelID = int(newID)
	case err != nil:
		return fmt.Errorf("failed to query for model '%s': %w", name, err)
	default:
		if _, err = tx.ExecContext(ctx, "UPDATE langmodel_models SET window_length = ? WHERE model_id = ?", m.windowLength, modelID); err != nil {
			return fmt.Errorf("failed to update model '%s': %w", name, err)
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM langmodel_stats WHERE model_id = ?", modelID); err != nil {
			return fmt.Errorf("failed to clear stats of model '%s': %w", name, err)
		}
	}

	stmtGetOrInsertWindow := tx.StmtContext(ctx, s.stmtGetOrInsertWindow)
	stmtInsertStat, err := tx.PrepareContext(ctx, `INSERT INTO langmodel_stats (model_id, window_id, window_seq, position, char_text, frequency) VALUES (?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare stat insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertStat)

	var entries int
	for seq, window := range m.order {
		var windowID int
		if err = stmtGetOrInsertWindow.QueryRowContext(ctx, window).Scan(&windowID); err != nil {
			return fmt.Errorf("failed to get or insert window %q: %w", window, err)
		}
		for pos, stat := range m.tables[window].Stats {
			if _, err = stmtInsertStat.ExecContext(ctx, modelID, windowID, seq, pos, string(stat.Char), stat.Count); err != nil {
				return fmt.Errorf("failed to insert stat (%q -> %q): %w", window, stat.Char, err)
			}
			entries++
		}
	}

	if err = deleteOrphanWindows(ctx, tx); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", name),
		slog.Int("model_id", modelID),
		slog.Int("window_length", m.windowLength),
		slog.Int("windows_saved", len(m.order)),
		slog.Int("entries_saved", entries),
	)

	return tx.Commit()
}

// LoadModel rebuilds the model stored under name. The returned model is
// trained but its probabilities are not calculated.
func (s *Store) LoadModel(ctx context.Context, name string, opts ...Option) (*Model, error) {
	info, err := s.ModelInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := NewModel(info.WindowLength, opts...)
	if err != nil {
		return nil, fmt.Errorf("stored model '%s' is invalid: %w", name, err)
	}

	rows, err := s.stmtLoadStats.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query stats of model '%s': %w", name, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	tables := make(map[string]*WindowTable)
	var order []string
	for rows.Next() {
		var window, char string
		var count int
		if err = rows.Scan(&window, &char, &count); err != nil {
			return nil, err
		}
		c, _ := utf8.DecodeRuneInString(char)
		t, ok := tables[window]
		if !ok {
			t = &WindowTable{}
			tables[window] = t
			order = append(order, window)
		}
		t.Add(c, count)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	m.merge(order, tables)

	s.logger.InfoContext(ctx, "Model loaded",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
		slog.Int("windows_loaded", len(order)),
	)
	return m, nil
}

// RemoveModel deletes a stored model and all of its stats. Windows no longer
// used by any model are removed as well. The operation is performed within
// a transaction.
func (s *Store) RemoveModel(ctx context.Context, name string) error {
	info, err := s.ModelInfo(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM langmodel_stats WHERE model_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove stats for model %d: %w", info.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM langmodel_models WHERE model_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", info.Id, err)
	}
	if err = deleteOrphanWindows(ctx, tx); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
	)

	return tx.Commit()
}

func deleteOrphanWindows(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM langmodel_windows WHERE window_id NOT IN (SELECT DISTINCT window_id FROM langmodel_stats);`)
	if err != nil {
		return fmt.Errorf("failed to remove unused windows: %w", err)
	}
	return nil
}
