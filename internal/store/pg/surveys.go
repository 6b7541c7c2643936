package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"serveyz.org/internal/ids"
	"serveyz.org/internal/survey"
)

// SurveyStore implements survey.Store on Postgres.
type SurveyStore struct {
	db *sql.DB
}

var _ survey.Store = (*SurveyStore)(nil)

const surveyColumns = `id, title, category, coalesce(description,''), owner_email, vote_count, status, coalesce(feedback,''), created_at`

func scanSurvey(row interface{ Scan(dest ...any) error }) (survey.Survey, error) {
	var sv survey.Survey
	err := row.Scan(&sv.ID, &sv.Title, &sv.Category, &sv.Description, &sv.OwnerEmail, &sv.VoteCount, &sv.Status, &sv.Feedback, &sv.CreatedAt)
	return sv, err
}

func (s *SurveyStore) Create(ctx context.Context, sv survey.Survey) (survey.Survey, error) {
	if strings.TrimSpace(sv.Title) == "" {
		return survey.Survey{}, survey.ErrInvalidTitle
	}
	sv.ID = ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into surveys(id, title, category, description, owner_email, vote_count, status, created_at)
		values ($1, $2, $3, $4, $5, 0, 'pending', now())
		returning `+surveyColumns, sv.ID, sv.Title, sv.Category, sv.Description, sv.OwnerEmail)
	return scanSurvey(row)
}

func (s *SurveyStore) GetByID(ctx context.Context, id string) (survey.Survey, error) {
	row := s.db.QueryRowContext(ctx, `select `+surveyColumns+` from surveys where id=$1`, id)
	sv, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Survey{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Survey{}, err
	}
	return sv, nil
}

func (s *SurveyStore) List(ctx context.Context) ([]survey.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `select `+surveyColumns+` from surveys order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSurveys(rows)
}

func (s *SurveyStore) Query(ctx context.Context, q survey.Query) (survey.Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}

	// Sort direction is concatenated from the validated enum, never from
	// raw request input.
	order := `created_at asc`
	switch q.Sort {
	case survey.SortAsc:
		order = `vote_count asc`
	case survey.SortDesc:
		order = `vote_count desc`
	}

	total, err := s.Count(ctx, q.Search, q.Category)
	if err != nil {
		return survey.Page{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select `+surveyColumns+`
		from surveys
		where ($1 = '' or title ilike '%' || $1 || '%')
		  and ($2 = '' or category = $2)
		order by `+order+`
		limit $3 offset $4
	`, q.Search, q.Category, q.PageSize, (q.Page-1)*q.PageSize)
	if err != nil {
		return survey.Page{}, err
	}
	defer rows.Close()

	items, err := collectSurveys(rows)
	if err != nil {
		return survey.Page{}, err
	}
	if items == nil {
		items = []survey.Survey{}
	}
	return survey.Page{Items: items, TotalCount: total}, nil
}

func (s *SurveyStore) Count(ctx context.Context, search, category string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		select count(*) from surveys
		where ($1 = '' or title ilike '%' || $1 || '%')
		  and ($2 = '' or category = $2)
	`, search, category).Scan(&n)
	return n, err
}

func (s *SurveyStore) UpdateStatus(ctx context.Context, id string, status survey.Status, feedback string) error {
	res, err := s.db.ExecContext(ctx, `
		update surveys set status=$2, feedback=nullif($3,'') where id=$1
	`, id, string(status), feedback)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (s *SurveyStore) IncrementVoteCount(ctx context.Context, id string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		update surveys set vote_count = vote_count + $2 where id=$1
	`, id, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

// CastVote inserts the vote and bumps the counter in one transaction, so a
// missing survey never leaves a dangling vote record.
func (s *SurveyStore) CastVote(ctx context.Context, v survey.Vote) (survey.Vote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return survey.Vote{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var dummy int
	err = tx.QueryRowContext(ctx, `select 1 from surveys where id=$1 for update`, v.SurveyID).Scan(&dummy)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Vote{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Vote{}, err
	}

	v.ID = ids.New()
	if err := tx.QueryRowContext(ctx, `
		insert into votes(id, survey_id, voter_email, choice, created_at)
		values ($1, $2, $3, $4, now())
		returning created_at
	`, v.ID, v.SurveyID, v.VoterEmail, v.Choice).Scan(&v.CreatedAt); err != nil {
		return survey.Vote{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		update surveys set vote_count = vote_count + 1 where id=$1
	`, v.SurveyID); err != nil {
		return survey.Vote{}, err
	}
	if err := tx.Commit(); err != nil {
		return survey.Vote{}, err
	}
	return v, nil
}

func (s *SurveyStore) VotesBySurvey(ctx context.Context, surveyID string) ([]survey.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, survey_id, voter_email, choice, created_at
		from votes where survey_id=$1 order by created_at asc
	`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []survey.Vote
	for rows.Next() {
		var v survey.Vote
		if err := rows.Scan(&v.ID, &v.SurveyID, &v.VoterEmail, &v.Choice, &v.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func collectSurveys(rows *sql.Rows) ([]survey.Survey, error) {
	var res []survey.Survey
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, sv)
	}
	return res, rows.Err()
}
