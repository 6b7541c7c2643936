package survey

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the review state assigned by an admin. New surveys start pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a wire-level status value.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Survey is a published questionnaire. VoteCount is mutated only through
// the vote recorder; Status and Feedback only through admin review.
type Survey struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	OwnerEmail  string    `json:"owner_email"`
	VoteCount   int       `json:"vote_count"`
	Status      Status    `json:"status"`
	Feedback    string    `json:"feedback,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vote is an immutable record referencing (not owning) a survey. Every
// stored vote corresponds to exactly one increment of the survey's counter.
type Vote struct {
	ID         string    `json:"id"`
	SurveyID   string    `json:"survey_id"`
	VoterEmail string    `json:"email"`
	Choice     string    `json:"choice"`
	CreatedAt  time.Time `json:"created_at"`
}

// SortDir orders query results by vote count.
type SortDir string

const (
	SortNone SortDir = ""
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

const defaultPageSize = 10

// Query describes the public listing parameters. Pages are 1-indexed.
type Query struct {
	Search   string // case-insensitive substring match on title
	Category string // exact match
	Sort     SortDir
	Page     int
	PageSize int
}

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	return q
}

// Page is one slice of a filtered listing. TotalCount covers the whole
// filtered set independent of pagination.
type Page struct {
	Items      []Survey `json:"surveys"`
	TotalCount int      `json:"totalCount"`
}

var (
	ErrNotFound      = errors.New("survey not found")
	ErrInvalidTitle  = errors.New("title is required")
	ErrInvalidStatus = errors.New("invalid status")
)
