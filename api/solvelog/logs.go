package solvelog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/classplan/api/respond"
	"github.com/kilianp07/classplan/infra/solvelog"
)

// NewLogHandler returns an HTTP handler exposing solve records via GET /api/solves.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewLogHandler(store solvelog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		params := r.URL.Query()
		q := solvelog.Query{Status: params.Get("status")}
		for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
			s := params.Get(name)
			if s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, name+" must be RFC3339")
				return
			}
			*dst = t
		}
		if s := params.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "limit must be a non-negative integer")
				return
			}
			q.Limit = n
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []solvelog.Record{}
		}
		respond.JSON(w, http.StatusOK, records)
	})
}
