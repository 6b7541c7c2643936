package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"serveyz.org/internal/audit"
	"serveyz.org/internal/auth"
	"serveyz.org/internal/obs"
	"serveyz.org/internal/stream"
	"serveyz.org/internal/survey"
)

type createSurveyRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (a *API) createSurvey(w http.ResponseWriter, r *http.Request) {
	var req createSurveyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	owner, _ := auth.EmailFromContext(r.Context())
	sv, err := a.surveys.Create(r.Context(), survey.Survey{
		Title:       strings.TrimSpace(req.Title),
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		OwnerEmail:  owner,
	})
	if err != nil {
		if errors.Is(err, survey.ErrInvalidTitle) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "survey.created", map[string]any{
		"survey_id": sv.ID,
		"title":     sv.Title,
	})
	w.Header().Set("Location", "/surveyDetails/"+sv.ID)
	writeJSON(w, http.StatusCreated, sv)
}

func (a *API) surveyDetails(w http.ResponseWriter, r *http.Request) {
	sv, err := a.surveys.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		handleSurveyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// querySurveys serves the public listing with search, category filter,
// vote-count sort and offset pagination.
func (a *API) querySurveys(w http.ResponseWriter, r *http.Request) {
	q := survey.Query{
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Category: strings.TrimSpace(r.URL.Query().Get("filter")),
	}

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort"))) {
	case "asc":
		q.Sort = survey.SortAsc
	case "desc":
		q.Sort = survey.SortDesc
	}

	var err error
	if q.Page, err = parsePositiveInt(r.URL.Query().Get("page"), 1); err != nil {
		writeError(w, r, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	if q.PageSize, err = parsePositiveInt(r.URL.Query().Get("size"), 10); err != nil {
		writeError(w, r, http.StatusBadRequest, "size must be a positive integer")
		return
	}

	page, err := a.surveys.Query(r.Context(), q)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) listSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := a.surveys.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if surveys == nil {
		surveys = []survey.Survey{}
	}
	writeJSON(w, http.StatusOK, surveys)
}

type updateStatusRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

func (a *API) updateSurveyStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	status, err := survey.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.surveys.UpdateStatus(r.Context(), id, status, req.Feedback); err != nil {
		handleSurveyError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "survey.reviewed", map[string]any{
		"survey_id": id,
		"status":    string(status),
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

func (a *API) countSurveys(w http.ResponseWriter, r *http.Request) {
	n, err := a.surveys.Count(r.Context(),
		strings.TrimSpace(r.URL.Query().Get("search")),
		strings.TrimSpace(r.URL.Query().Get("filter")))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

type castVoteRequest struct {
	SurveyID string `json:"survey_id"`
	Email    string `json:"email"`
	Choice   string `json:"choice"`
}

func (a *API) castVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.SurveyID) == "" {
		writeError(w, r, http.StatusBadRequest, "survey_id is required")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}

	v, err := a.surveys.CastVote(r.Context(), survey.Vote{
		SurveyID:   req.SurveyID,
		VoterEmail: req.Email,
		Choice:     req.Choice,
	})
	if err != nil {
		handleSurveyError(w, r, err)
		return
	}

	obs.VoteRecorded()
	if a.stream != nil {
		// Best effort; a failed read only skips the dashboard event.
		if sv, err := a.surveys.GetByID(r.Context(), v.SurveyID); err == nil {
			a.stream.Publish(stream.VoteEvent{
				SurveyID:  sv.ID,
				Title:     sv.Title,
				Choice:    v.Choice,
				VoteCount: sv.VoteCount,
				Timestamp: time.Now().UTC(),
			})
		}
	}

	_ = audit.LogEvent(r.Context(), "survey.vote.recorded", map[string]any{
		"survey_id": v.SurveyID,
		"vote_id":   v.ID,
		"email":     v.VoterEmail,
	})
	writeJSON(w, http.StatusCreated, v)
}

func handleSurveyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, survey.ErrInvalidTitle), errors.Is(err, survey.ErrInvalidStatus):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, survey.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func parsePositiveInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return val, nil
}
