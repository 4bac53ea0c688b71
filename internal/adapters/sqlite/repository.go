package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// maxPayloadBytes caps the raw payload stored per record.
const maxPayloadBytes = 4096

// Repository implements ports.AlertJournal using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

var _ ports.AlertJournal = (*Repository)(nil)

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite journal. ":memory:" is accepted for tests.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		return nil, fmt.Errorf("%w: journal DB path is empty", ports.ErrConfigurationError)
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// One connection: sqlite serializes writers anyway, and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Alert journal ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS alert_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		received_at TIMESTAMP NOT NULL,
		raw_payload TEXT NOT NULL,
		pair TEXT NOT NULL DEFAULT '',
		side TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL DEFAULT '',
		volume TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		order_id TEXT NOT NULL DEFAULT '',
		error_detail TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_alert_journal_received_at ON alert_journal (received_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Append saves a record and returns its assigned ID.
// Decimals are stored as text to keep them exact.
func (r *Repository) Append(ctx context.Context, rec *domain.AlertRecord) (int64, error) {
	const query = `
	INSERT INTO alert_journal (request_id, received_at, raw_payload, pair, side, amount, volume, price, outcome, order_id, error_detail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	payload := rec.RawPayload
	if len(payload) > maxPayloadBytes {
		payload = payload[:maxPayloadBytes]
	}

	result, err := r.db.ExecContext(ctx, query,
		rec.RequestID, rec.ReceivedAt.UTC(), payload, string(rec.Pair), string(rec.Side),
		decimalText(rec.Amount), decimalText(rec.Volume), decimalText(rec.Price),
		string(rec.Outcome), rec.OrderID, rec.ErrorDetail)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal record %s: %w", rec.RequestID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for journal record %s: %w", rec.RequestID, err)
	}
	rec.ID = id
	r.logger.Debug(ctx, "Journal record appended", map[string]interface{}{"recordID": id, "requestID": rec.RequestID, "outcome": string(rec.Outcome)})
	return id, nil
}

// Recent returns up to limit records, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*domain.AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
	SELECT id, request_id, received_at, raw_payload, pair, side, amount, volume, price, outcome, order_id, error_detail
	FROM alert_journal
	ORDER BY id DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.AlertRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (*domain.AlertRecord, error) {
	var (
		rec                   domain.AlertRecord
		receivedAt            time.Time
		pair, side, outcome   string
		amount, volume, price string
	)
	err := rows.Scan(&rec.ID, &rec.RequestID, &receivedAt, &rec.RawPayload, &pair, &side,
		&amount, &volume, &price, &outcome, &rec.OrderID, &rec.ErrorDetail)
	if err != nil {
		return nil, err
	}
	rec.ReceivedAt = receivedAt
	rec.Pair = domain.NormalizedPair(pair)
	rec.Side = domain.OrderSide(side)
	rec.Outcome = domain.Outcome(outcome)
	if rec.Amount, err = parseDecimalText(amount); err != nil {
		return nil, err
	}
	if rec.Volume, err = parseDecimalText(volume); err != nil {
		return nil, err
	}
	if rec.Price, err = parseDecimalText(price); err != nil {
		return nil, err
	}
	return &rec, nil
}

func decimalText(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDecimalText(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
