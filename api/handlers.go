/*
handlers.go - HTTP API handlers for the cash drawer

PURPOSE:
  Exposes the drawer engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every rule to the drawer package.

ENDPOINTS:
  Sessions:
    POST   /api/sessions                   Open today's session
    GET    /api/sessions                   List (?owner_id=&date=&status=)
    GET    /api/sessions/current           Today's open session (?owner_id=)
    GET    /api/sessions/{id}              Get session
    GET    /api/sessions/{id}/stats        Live stats, recomputed
    GET    /api/sessions/{id}/movements    Movements in recording order
    POST   /api/sessions/{id}/movements    Record movement
    POST   /api/sessions/{id}/close        Close with declared cash

  Movements:
    PATCH  /api/movements/{id}             Amend while the session is open

  Reports:
    GET    /api/reports/daily              ?owner_id=&date=&format=json|csv|xlsx|pdf

ACTOR:
  The caller is identified by X-Actor-ID, X-Actor-Name and X-Actor-Role
  headers (see actor.go). There is no authentication; the headers only decide
  who recorded a movement and what a report may show.

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the drawer error:
  - 400: Validation errors, malformed body or query
  - 403: Report for another owner requested by an operator
  - 404: Session or movement not found
  - 409: Session already open, session not open
  - 503: Store unavailable
  - 500: Anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/export"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears every session and movement. Both stores implement it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *drawer.Engine
	Store  drawer.Store
	Log    zerolog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over the engine and the store it writes to.
func NewHandler(engine *drawer.Engine, store drawer.Store, log zerolog.Logger) *Handler {
	return &Handler{Engine: engine, Store: store, Log: log}
}

var validate = validator.New()

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// OpenSession opens today's session for the owner.
// POST /api/sessions
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor := actorFrom(r.Context())
	ownerID := drawer.OwnerID(req.OwnerID)
	ownerName := req.OwnerName
	if ownerID == "" {
		ownerID = actor.ID
	}
	if ownerName == "" && ownerID == actor.ID {
		ownerName = actor.Name
	}

	s, err := h.Engine.OpenSession(r.Context(), ownerID, ownerName, req.OpeningFloat)
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(s))
}

// ListSessions returns sessions matching the query filters.
// GET /api/sessions?owner_id=&date=&status=
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := drawer.SessionFilter{
		OwnerID: drawer.OwnerID(q.Get("owner_id")),
		Status:  drawer.SessionStatus(q.Get("status")),
	}
	if d := q.Get("date"); d != "" {
		date, err := drawer.ParseDate(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		filter.Date = date
	}

	sessions, err := h.Engine.Sessions(r.Context(), filter)
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions))
}

// CurrentSession returns the owner's open session for today.
// GET /api/sessions/current?owner_id=
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	ownerID := drawer.OwnerID(r.URL.Query().Get("owner_id"))
	if ownerID == "" {
		ownerID = actorFrom(r.Context()).ID
	}
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required", nil)
		return
	}

	s, err := h.Engine.CurrentSession(r.Context(), ownerID)
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s))
}

// GetSession returns a single session.
// GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Engine.Session(r.Context(), drawer.SessionID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s))
}

// GetStats recomputes a session's stats from its movements.
// GET /api/sessions/{id}/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Engine.Stats(r.Context(), drawer.SessionID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(st))
}

// CloseSession reconciles the declared count and closes the session.
// POST /api/sessions/{id}/close
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	var req CloseSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	closing, err := h.Engine.CloseSession(r.Context(), drawer.SessionID(chi.URLParam(r, "id")), *req.DeclaredCashAmount)
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCloseResponse(closing))
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

// ListMovements returns a session's movements.
// GET /api/sessions/{id}/movements
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.Engine.Movements(r.Context(), drawer.SessionID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(movements))
}

// RecordMovement appends an income or expense to an open session.
// POST /api/sessions/{id}/movements
func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req RecordMovementRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := drawer.MovementInput{
		Kind:          drawer.MovementKind(req.Kind),
		Amount:        req.Amount,
		Concept:       req.Concept,
		PaymentMethod: drawer.PaymentMethod(req.PaymentMethod),
		Observations:  req.Observations,
		RecordedBy:    actorFrom(r.Context()),
	}

	m, err := h.Engine.RecordMovement(r.Context(), drawer.SessionID(chi.URLParam(r, "id")), in)
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMovementDTO(m))
}

// AmendMovement replaces fields of a movement whose session is still open.
// PATCH /api/movements/{id}
func (h *Handler) AmendMovement(w http.ResponseWriter, r *http.Request) {
	var req AmendMovementRequest
	if !h.decode(w, r, &req) {
		return
	}

	patch := drawer.MovementPatch{
		Amount:       req.Amount,
		Concept:      req.Concept,
		Observations: req.Observations,
	}
	if req.PaymentMethod != nil {
		pm := drawer.PaymentMethod(*req.PaymentMethod)
		patch.PaymentMethod = &pm
	}

	m, err := h.Engine.AmendMovement(r.Context(), drawer.MovementID(chi.URLParam(r, "id")), patch)
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTO(m))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyReport returns the report as JSON or as a downloadable file.
// GET /api/reports/daily?owner_id=&date=&format=
//
// An empty date covers every day. Operators only see their own sessions.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := drawer.ReportQuery{OwnerID: drawer.OwnerID(q.Get("owner_id"))}
	if d := q.Get("date"); d != "" {
		date, err := drawer.ParseDate(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		query.Date = date
	}

	format := strings.ToLower(q.Get("format"))
	var renderer export.Renderer
	if format != "" && format != "json" {
		rd, err := export.ForFormat(format)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unknown format", err)
			return
		}
		renderer = rd
	}

	report, err := h.Engine.DailyReport(r.Context(), actorFrom(r.Context()), query)
	if err != nil {
		h.writeDrawerError(w, r, err)
		return
	}

	if renderer == nil {
		writeJSON(w, http.StatusOK, toReportDTO(report))
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(report, renderer)))
	w.WriteHeader(http.StatusOK)
	if err := renderer.Render(w, report); err != nil {
		// Headers are already sent; all that is left is to log.
		h.Log.Error().Err(err).Str("format", format).Msg("report render failed")
	}
}

// Healthz reports whether the store answers.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads the JSON body into dst and runs its validator tags. It writes
// the error response and returns false when either step fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid request",
				Code:    "validation",
				Details: fields,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// statusFor maps a drawer error onto an HTTP status and a short code.
func statusFor(err error) (int, string) {
	switch {
	case drawer.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, drawer.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case drawer.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, drawer.ErrSessionAlreadyOpen):
		return http.StatusConflict, "session_already_open"
	case errors.Is(err, drawer.ErrSessionNotOpen):
		return http.StatusConflict, "session_not_open"
	case errors.Is(err, drawer.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

func (h *Handler) writeDrawerError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var verr *drawer.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status >= http.StatusInternalServerError {
		// Do not leak driver errors to clients.
		resp.Error = http.StatusText(status)
		h.Log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
