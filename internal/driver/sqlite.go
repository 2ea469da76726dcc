package driver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

// SQLiteStore keeps records in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and initializes the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(sqliteSchema)
	return err
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) CreatePrediction(ctx context.Context, rec model.PredictionRecord) error {
	link, err := json.Marshal(rec.ScoreMap)
	if err != nil {
		return fmt.Errorf("encode score map: %w", err)
	}

	res, err := s.db.ExecContext(ctx, sqliteInsertPrediction,
		rec.ID, rec.TreeID, rec.TreeDescription, rec.TreeAuthor,
		string(link), rec.LastImage, rec.CreatedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("prediction %s: %w", rec.ID, ErrConflict)
	}
	return nil
}

func (s *SQLiteStore) ListPredictions(ctx context.Context) ([]model.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListPredictions)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []model.PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetPrediction(ctx context.Context, id string) (model.PredictionRecord, error) {
	rec, err := scanPrediction(s.db.QueryRowContext(ctx, sqliteGetPrediction, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PredictionRecord{}, fmt.Errorf("prediction %s: %w", id, ErrNotFound)
	}
	return rec, err
}

func (s *SQLiteStore) DeletePrediction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, sqliteDeletePrediction, id)
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("prediction %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) error {
	res, err := s.db.ExecContext(ctx, sqliteInsertUser,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s: %w", u.Username, ErrConflict)
	}
	return nil
}

func (s *SQLiteStore) GetUserByName(ctx context.Context, username string) (model.User, error) {
	var (
		u       model.User
		created int64
	)
	err := s.db.QueryRowContext(ctx, sqliteGetUserByName, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row scanner) (model.PredictionRecord, error) {
	var (
		rec     model.PredictionRecord
		link    string
		created int64
	)
	if err := row.Scan(&rec.ID, &rec.TreeID, &rec.TreeDescription, &rec.TreeAuthor,
		&link, &rec.LastImage, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan prediction: %w", err)
	}

	m, err := model.ParseScoreMap(json.RawMessage(link))
	if err != nil {
		return rec, fmt.Errorf("decode score map of %s: %w", rec.ID, err)
	}
	rec.ScoreMap = m
	rec.CreatedAt = time.Unix(0, created).UTC()
	return rec, nil
}
