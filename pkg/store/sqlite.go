// Package store persists estimation history and the domains seen by the
// estimator in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3" // initialize sqlite3
	log "github.com/sirupsen/logrus"

	"github.com/goliatone/go-formguard/pkg/domain"
	"github.com/goliatone/go-formguard/pkg/estimate"
)

const (
	// DefaultLimit is the number of history rows returned when the query
	// does not ask for a specific amount.
	DefaultLimit = 50
	// MaxLimit caps the number of history rows returned by one query.
	MaxLimit = 500
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Config defines Store configuration.
type Config struct {
	// Path specifies the database location. Parent directories are created.
	Path string
	// Clock stamps rows that arrive without a timestamp.
	Clock clockwork.Clock
}

// Store is the SQLite backed history.
type Store struct {
	// Config contains store configuration.
	Config   Config
	database *sqlx.DB
}

// Record is one history row.
type Record struct {
	ID           int64     `db:"id" json:"id"`
	EstimationID string    `db:"estimation_id" json:"estimationId,omitempty"`
	Domain       string    `db:"domain" json:"domain"`
	Price        float64   `db:"price" json:"price"`
	Grade        float64   `db:"grade" json:"grade"`
	EstimatedAt  time.Time `db:"estimated_at" json:"estimationDate"`
}

// Query filters History.
type Query struct {
	// Domain keeps rows whose domain contains it, case-insensitively.
	Domain string
	// Limit bounds the result. Zero selects DefaultLimit; values above
	// MaxLimit are clamped.
	Limit int
}

// Domain is the stored view of a domain name.
type Domain struct {
	Name         string           `json:"name"`
	TLD          string           `json:"tld"`
	Length       int              `json:"length"`
	Structure    domain.Structure `json:"structure"`
	RegisteredAt time.Time        `json:"registeredAt"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Open connects to the database at cfg.Path and creates missing tables.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("store: database path is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", filepath.Dir(cfg.Path), err)
		}
	}

	database, err := sqlx.ConnectContext(ctx, "sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Path, err)
	}
	if cfg.Path == MemoryPath {
		// every connection would otherwise see its own empty database
		database.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{createTableHistory, createIndexHistory, createTableDomains} {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			database.Close()
			return nil, fmt.Errorf("store: migrate: %w", err)
		}
	}

	return &Store{Config: cfg, database: database}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.database.Close()
}

// SaveHistory inserts rec and returns it with its ID and timestamp set.
func (s *Store) SaveHistory(ctx context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.Domain) == "" {
		return rec, errors.New("store: history record needs a domain")
	}
	if rec.EstimatedAt.IsZero() {
		rec.EstimatedAt = s.Config.Clock.Now()
	}
	rec.EstimatedAt = rec.EstimatedAt.UTC()

	res, err := s.database.ExecContext(ctx, insertIntoHistory,
		rec.EstimationID,
		rec.Domain,
		rec.Price,
		rec.Grade,
		rec.EstimatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("store: save history: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return rec, fmt.Errorf("store: save history: %w", err)
	}
	return rec, nil
}

// History returns the most recent records first.
func (s *Store) History(ctx context.Context, q Query) (records []Record, err error) {
	query, args := prepareHistoryQuery(q)
	rows, err := s.database.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.WithError(err).Error("Failed to close sql rows.")
		}
	}()

	records = []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("store: scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate history: %w", err)
	}
	return records, nil
}

// SaveDomain inserts d or refreshes the stored row for d.Name.
func (s *Store) SaveDomain(ctx context.Context, d Domain) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("store: domain needs a name")
	}
	now := s.Config.Clock.Now().UTC()
	_, err := s.database.ExecContext(ctx, upsertDomain,
		strings.ToLower(d.Name),
		d.TLD,
		d.Length,
		string(d.Structure),
		nullTime(d.RegisteredAt),
		nullTime(d.ExpiresAt),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("store: save domain %s: %w", d.Name, err)
	}
	return nil
}

// Domain loads a stored domain by name.
func (s *Store) Domain(ctx context.Context, name string) (Domain, error) {
	var row sqlDomain
	err := s.database.GetContext(ctx, &row, selectDomain, strings.ToLower(name))
	if errors.Is(err, sql.ErrNoRows) {
		return Domain{}, fmt.Errorf("%w: domain %s", ErrNotFound, name)
	}
	if err != nil {
		return Domain{}, fmt.Errorf("store: load domain %s: %w", name, err)
	}
	return row.toDomain(), nil
}

// Save records an estimation: the history row and the domain row. It is
// what the HTTP and CLI surfaces call after a successful estimate.
func (s *Store) Save(ctx context.Context, res *estimate.Result) (Record, error) {
	rec, err := s.SaveHistory(ctx, RecordFromResult(res))
	if err != nil {
		return rec, err
	}
	if err := s.SaveDomain(ctx, DomainFromResult(res)); err != nil {
		return rec, err
	}
	return rec, nil
}

// RecordFromResult maps an estimation onto a history row.
func RecordFromResult(res *estimate.Result) Record {
	return Record{
		EstimationID: res.ID,
		Domain:       res.Domain,
		Price:        res.Price,
		Grade:        res.Grade,
		EstimatedAt:  res.EstimatedAt,
	}
}

// DomainFromResult maps an estimation onto a domain row.
func DomainFromResult(res *estimate.Result) Domain {
	return Domain{
		Name:         res.Info.Name,
		TLD:          res.Info.TLD,
		Length:       res.Info.Length,
		Structure:    res.Info.Structure,
		RegisteredAt: res.Signals.RegisteredAt,
		ExpiresAt:    res.Signals.ExpiresAt,
	}
}

// prepareHistoryQuery builds the history query for q.
func prepareHistoryQuery(q Query) (query string, args []interface{}) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM history ")
	if filter := strings.TrimSpace(q.Domain); filter != "" {
		sb.WriteString(`WHERE domain LIKE ? ESCAPE '\' `)
		args = append(args, "%"+escapeLike(filter)+"%")
	}
	sb.WriteString("ORDER BY estimated_at DESC, id DESC LIMIT ?")
	args = append(args, clampLimit(q.Limit))
	return sb.String(), args
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// sqlDomain defines an sql domains row.
type sqlDomain struct {
	Name         string       `db:"name"`
	TLD          string       `db:"tld"`
	Length       int          `db:"length"`
	Structure    string       `db:"structure"`
	RegisteredAt sql.NullTime `db:"registered_at"`
	ExpiresAt    sql.NullTime `db:"expires_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r sqlDomain) toDomain() Domain {
	return Domain{
		Name:         r.Name,
		TLD:          r.TLD,
		Length:       r.Length,
		Structure:    domain.Structure(r.Structure),
		RegisteredAt: r.RegisteredAt.Time,
		ExpiresAt:    r.ExpiresAt.Time,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
