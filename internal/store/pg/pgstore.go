package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store owns the Postgres pool and hands out the per-domain stores.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() *UserStore       { return &UserStore{db: s.db} }
func (s *Store) Surveys() *SurveyStore   { return &SurveyStore{db: s.db} }
func (s *Store) Reports() *ReportStore   { return &ReportStore{db: s.db} }
func (s *Store) Payments() *PaymentStore { return &PaymentStore{db: s.db} }
