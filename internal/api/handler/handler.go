package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"attendance.service/internal/api/identity"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

// AttendanceHandler exposes the sign-in/out surface to authenticated users.
type AttendanceHandler struct {
	Service *core.AttendanceService
}

// AdminHandler exposes the approval queue to admins. Role enforcement lives
// in the workflow, not here; the handler only carries the caller through.
type AdminHandler struct {
	Service *core.ApprovalService
}

type submitRequest struct {
	Location model.LocationSample `json:"location"`
}

type decisionRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

func (h *AttendanceHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.Service.SubmitSignIn)
}

func (h *AttendanceHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.Service.SubmitSignOut)
}

func (h *AttendanceHandler) submit(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, userID string, sample model.LocationSample) (*model.PendingSignIn, error)) {

	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pending, err := action(r.Context(), caller.ID, req.Location)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"pendingSignIn": pending})
}

func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	status, err := h.Service.TodayStatus(r.Context(), caller.ID)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"today": status})
}

func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.Service.History(r.Context(), caller.ID, q.Get("start_date"), q.Get("end_date"), limit)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attendance": records})
}

func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	pending, err := h.Service.ListPending(r.Context(), caller.Role)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pendingSignIns": pending})
}

// Decide handles both terminal transitions; the body names the target status
// the way the admin dashboard submits it.
func (h *AdminHandler) Decide(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Status {
	case string(model.StatusApproved):
		record, err := h.Service.Approve(r.Context(), id, caller.ID, caller.Role)
		if err != nil {
			writeDomainError(r, w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attendance": record})
	case string(model.StatusRejected):
		if err := h.Service.Reject(r.Context(), id, caller.ID, caller.Role, req.RejectionReason); err != nil {
			writeDomainError(r, w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Submission rejected"})
	default:
		writeError(w, http.StatusBadRequest, "Status must be either approved or rejected")
	}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	stats, err := h.Service.Stats(r.Context(), caller.Role)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// writeDomainError is the single translation point from the domain taxonomy
// to HTTP status codes.
func writeDomainError(r *http.Request, w http.ResponseWriter, err error) {
	var outOfRange *core.OutOfRangeError
	var invalid *core.ValidationError

	switch {
	case errors.As(err, &invalid),
		errors.Is(err, core.ErrWeekend),
		errors.Is(err, core.ErrAlreadySignedIn),
		errors.Is(err, core.ErrAlreadySignedOut),
		errors.Is(err, core.ErrNotSignedIn):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &outOfRange):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"message":     outOfRange.Error(),
				"distance":    outOfRange.DistanceMeters,
				"maxDistance": outOfRange.RadiusMeters,
			},
		})
	case errors.Is(err, core.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrAlreadyProcessed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "Service error processing request")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]any{"success": status < 400}
	for k, v := range payload {
		body[k] = v
	}
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message, "status": status},
	})
}
