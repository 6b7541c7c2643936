package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"serveyz.org/internal/audit"
	"serveyz.org/internal/report"
)

type createReportRequest struct {
	UserEmail string `json:"userEmail"`
	SurveyID  string `json:"survey_id"`
	Details   string `json:"details"`
}

func (a *API) createReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := a.reports.Create(r.Context(), report.Report{
		UserEmail: strings.TrimSpace(req.UserEmail),
		SurveyID:  strings.TrimSpace(req.SurveyID),
		Details:   req.Details,
	})
	if err != nil {
		if errors.Is(err, report.ErrInvalidEmail) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "report.created", map[string]any{
		"report_id": rep.ID,
		"survey_id": rep.SurveyID,
	})
	writeJSON(w, http.StatusCreated, rep)
}

func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := a.reports.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if reports == nil {
		reports = []report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *API) reportsByEmail(w http.ResponseWriter, r *http.Request) {
	reports, err := a.reports.ListByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if reports == nil {
		reports = []report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *API) reportByID(w http.ResponseWriter, r *http.Request) {
	rep, err := a.reports.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
