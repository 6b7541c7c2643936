package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"serveyz.org/internal/ids"
	"serveyz.org/internal/report"
)

// ReportStore implements report.Store on Postgres.
type ReportStore struct {
	db *sql.DB
}

var _ report.Store = (*ReportStore)(nil)

func (s *ReportStore) Create(ctx context.Context, r report.Report) (report.Report, error) {
	if strings.TrimSpace(r.UserEmail) == "" {
		return report.Report{}, report.ErrInvalidEmail
	}
	r.ID = ids.New()
	err := s.db.QueryRowContext(ctx, `
		insert into reports(id, user_email, survey_id, details, created_at)
		values ($1, $2, nullif($3,''), $4, now())
		returning created_at
	`, r.ID, r.UserEmail, r.SurveyID, r.Details).Scan(&r.CreatedAt)
	if err != nil {
		return report.Report{}, err
	}
	return r, nil
}

func (s *ReportStore) List(ctx context.Context) ([]report.Report, error) {
	return s.query(ctx, `
		select id, user_email, coalesce(survey_id,''), coalesce(details,''), created_at
		from reports order by created_at asc
	`)
}

func (s *ReportStore) ListByEmail(ctx context.Context, email string) ([]report.Report, error) {
	return s.query(ctx, `
		select id, user_email, coalesce(survey_id,''), coalesce(details,''), created_at
		from reports where user_email=$1 order by created_at asc
	`, email)
}

func (s *ReportStore) GetByID(ctx context.Context, id string) (report.Report, error) {
	var r report.Report
	err := s.db.QueryRowContext(ctx, `
		select id, user_email, coalesce(survey_id,''), coalesce(details,''), created_at
		from reports where id=$1
	`, id).Scan(&r.ID, &r.UserEmail, &r.SurveyID, &r.Details, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, report.ErrNotFound
	}
	if err != nil {
		return report.Report{}, err
	}
	return r, nil
}

func (s *ReportStore) query(ctx context.Context, q string, args ...any) ([]report.Report, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []report.Report
	for rows.Next() {
		var r report.Report
		if err := rows.Scan(&r.ID, &r.UserEmail, &r.SurveyID, &r.Details, &r.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
