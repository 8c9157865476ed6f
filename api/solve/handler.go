// Package solve serves POST /solve.
package solve

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/kilianp07/classplan/api/respond"
	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/events"
	"github.com/kilianp07/classplan/core/model"
	"github.com/kilianp07/classplan/core/monitoring"
	"github.com/kilianp07/classplan/core/solver"
	"github.com/kilianp07/classplan/infra/logger"
	"github.com/kilianp07/classplan/infra/solvelog"
	"github.com/kilianp07/classplan/internal/eventbus"
)

// Deps are the collaborators of the solve handler. Log and Events are
// optional.
type Deps struct {
	Catalog *catalog.Store
	Solver  *solver.Solver
	Log     solvelog.Store
	Events  *eventbus.Bus[events.SolveEvent]
}

type handler struct {
	Deps
	logger logger.Logger
}

// NewHandler returns the POST /solve handler.
func NewHandler(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = solvelog.NopStore{}
	}
	return &handler{Deps: d, logger: logger.New("api_solve")}
}

// SectionView is one chosen section in the response.
type SectionView struct {
	Type      string   `json:"Type"`
	CRN       string   `json:"CRN"`
	Section   string   `json:"Section"`
	Intervals []string `json:"Intervals"`
}

// View renders an assignment keyed by "SUBJ NUM".
func View(a solver.Assignment) map[string][]SectionView {
	out := make(map[string][]SectionView, len(a))
	for k, secs := range a {
		out[k.String()] = lo.Map(secs, func(s model.Section, _ int) SectionView {
			return SectionView{Type: s.Type, CRN: s.CRN, Section: s.Label, Intervals: s.Meetings()}
		})
	}
	return out
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)
	start := time.Now()

	cat := h.Catalog.Load()
	if cat == nil {
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeCatalogUnavailable, "catalog not loaded yet")
		return
	}

	var cs solver.Constraints
	req, err := DecodeRequest(r)
	if err == nil {
		cs, err = req.Constraints()
	}
	var res solver.Result
	if err == nil {
		res, err = h.Solver.Solve(r.Context(), cat, cs)
	}

	status := res.Status.String()
	if err != nil {
		httpStatus, _ := respond.Fail(w, err)
		status = "rejected"
		switch {
		case errors.Is(err, solver.ErrTimeout):
			status = "timeout"
			h.logger.Warnf("solve %s timed out: %v", id, err)
		case httpStatus == http.StatusInternalServerError:
			h.logger.Errorf("solve %s: %v", id, err)
			monitoring.CaptureException(err, map[string]string{"module": "solve", "request_id": id})
		default:
			h.logger.Debugf("solve %s rejected: %v", id, err)
		}
	} else {
		w.Header().Set("X-Solve-Status", status)
		respond.JSON(w, http.StatusOK, View(res.Assignment))
	}

	h.record(r, id, start, cs, res, status, err)
}

func (h *handler) record(r *http.Request, id string, start time.Time, cs solver.Constraints,
	res solver.Result, status string, err error) {
	took := time.Since(start)
	rec := solvelog.Record{
		ID:         id,
		Timestamp:  start.UTC(),
		Classes:    lo.Map(cs.Classes, func(k model.ClassKey, _ int) string { return k.String() }),
		Banned:     cs.Banned,
		Locked:     cs.Locked,
		Status:     status,
		Nodes:      res.Nodes,
		DurationMS: float64(took.Microseconds()) / 1000,
	}
	if err != nil {
		rec.Error = err.Error()
	} else if res.Reason != "" {
		rec.Error = res.Reason
	}
	if lerr := h.Log.Append(r.Context(), rec); lerr != nil {
		h.logger.Warnf("solve log append: %v", lerr)
	}
	if h.Events != nil {
		h.Events.Publish(events.SolveEvent{
			RequestID: id,
			Status:    status,
			Classes:   len(cs.Classes),
			Locked:    len(cs.Locked),
			Banned:    len(cs.Banned),
			Nodes:     res.Nodes,
			Duration:  took,
			Err:       err,
			Time:      start,
		})
	}
	h.logger.Infow("solve", map[string]any{
		"request_id":  id,
		"status":      status,
		"classes":     len(cs.Classes),
		"nodes":       res.Nodes,
		"duration_ms": rec.DurationMS,
	})
}
