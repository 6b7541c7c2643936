package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"serveyz.org/api/spec"
	"serveyz.org/internal/obs"
	"serveyz.org/internal/payment"
	"serveyz.org/internal/report"
	"serveyz.org/internal/stream"
	"serveyz.org/internal/survey"
	"serveyz.org/internal/user"
)

// ReadyProbe reports readiness (for example a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps collects the stores and adapters the HTTP layer serves.
type Deps struct {
	Users    user.Store
	Surveys  survey.Store
	Reports  report.Store
	Payments payment.Store
	Intents  payment.IntentCreator
	Stream   *stream.Stream
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	users   user.Store
	surveys survey.Store
	reports report.Store
	ledger  *payment.Ledger
	intents payment.IntentCreator
	stream  *stream.Stream

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		users:      deps.Users,
		surveys:    deps.Surveys,
		reports:    deps.Reports,
		ledger:     payment.NewLedger(deps.Payments, deps.Users),
		intents:    deps.Intents,
		stream:     deps.Stream,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready/info
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)

	// OpenAPI YAML
	a.mux.HandleFunc("GET /openapi.yaml", a.OpenAPISpec)

	// Prometheus metrics
	a.mux.Handle("GET /metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("POST /jwt", a.issueToken)

	// users
	a.mux.Handle("GET /users/admin/{email}", a.requireAuth(a.roleFlagHandler(user.RoleAdmin, "admin")))
	a.mux.Handle("GET /users/surveyor/{email}", a.requireAuth(a.roleFlagHandler(user.RoleSurveyor, "surveyor")))
	a.mux.Handle("GET /users/prouser/{email}", a.requireAuth(a.roleFlagHandler(user.RolePro, "proUser")))
	a.mux.Handle("GET /users/user/{email}", a.requireAuth(a.roleFlagHandler(user.RoleUser, "user")))
	a.mux.HandleFunc("PUT /users", a.upsertUser)
	a.mux.HandleFunc("GET /users", a.listUsers)
	a.mux.Handle("PATCH /users/role/{id}", a.requireAuth(a.requireRole(user.RoleAdmin, http.HandlerFunc(a.setUserRole))))
	a.mux.Handle("DELETE /users/{id}", a.requireAuth(a.requireRole(user.RoleAdmin, http.HandlerFunc(a.deleteUser))))

	// surveys and votes
	a.mux.Handle("POST /surveys", a.requireAuth(http.HandlerFunc(a.createSurvey)))
	a.mux.HandleFunc("GET /surveyDetails/{id}", a.surveyDetails)
	a.mux.HandleFunc("GET /all-surveys", a.querySurveys)
	a.mux.HandleFunc("GET /allSurveys", a.listSurveys)
	a.mux.Handle("PUT /surveys/{id}/status", a.requireAuth(a.requireRole(user.RoleAdmin, http.HandlerFunc(a.updateSurveyStatus))))
	a.mux.HandleFunc("GET /surveys-count", a.countSurveys)
	a.mux.HandleFunc("POST /votes", a.castVote)
	a.mux.HandleFunc("GET /v1/votes/stream", a.Stream)

	// reports
	a.mux.HandleFunc("POST /reports", a.createReport)
	a.mux.HandleFunc("GET /reports", a.listReports)
	a.mux.HandleFunc("GET /reported/{email}", a.reportsByEmail)
	a.mux.Handle("GET /report/{id}", a.requireAuth(http.HandlerFunc(a.reportByID)))

	// payments
	a.mux.HandleFunc("POST /create-payment-intent", a.createPaymentIntent)
	a.mux.Handle("GET /payments/{email}", a.requireAuth(http.HandlerFunc(a.paymentsByEmail)))
	a.mux.HandleFunc("POST /payments", a.recordPayment)
	a.mux.HandleFunc("GET /payments", a.listPayments)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return h
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "serveyz-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "serveyz-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}
