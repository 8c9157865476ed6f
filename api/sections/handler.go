package sections

import (
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/kilianp07/classplan/api/respond"
	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
)

// Detail is one section as listed by GET /sections.
type Detail struct {
	CRN        string   `json:"CRN"`
	Type       string   `json:"Type"`
	Section    string   `json:"Section"`
	Status     string   `json:"Status"`
	Time       string   `json:"Time"`
	Days       string   `json:"Days"`
	Instructor string   `json:"Instructor"`
	Location   string   `json:"Location"`
	Intervals  []string `json:"Intervals"`
}

func detail(s model.Section) Detail {
	return Detail{
		CRN:        s.CRN,
		Type:       s.Type,
		Section:    s.Label,
		Status:     s.Status,
		Time:       s.TimeText(),
		Days:       s.DaysText(),
		Instructor: s.Instructor,
		Location:   s.Location,
		Intervals:  s.Meetings(),
	}
}

// NewSectionsHandler returns GET /sections?subCode=&num= listing every
// section of a class in catalog order.
func NewSectionsHandler(store *catalog.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		subj, num := strings.TrimSpace(q.Get("subCode")), strings.TrimSpace(q.Get("num"))
		if subj == "" || num == "" {
			respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "subCode and num are required")
			return
		}
		cat := store.Load()
		if cat == nil {
			respond.Error(w, http.StatusServiceUnavailable, respond.CodeCatalogUnavailable, "catalog not loaded yet")
			return
		}
		secs, err := cat.Sections(model.NewClassKey(subj, num))
		if err != nil {
			respond.Error(w, http.StatusNotFound, respond.CodeUnknownClass, err.Error())
			return
		}
		respond.JSON(w, http.StatusOK, lo.Map(secs, func(s model.Section, _ int) Detail { return detail(s) }))
	})
}

// NewClassesHandler returns GET /classes mapping subject codes to course
// numbers.
func NewClassesHandler(store *catalog.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cat := store.Load()
		if cat == nil {
			respond.Error(w, http.StatusServiceUnavailable, respond.CodeCatalogUnavailable, "catalog not loaded yet")
			return
		}
		respond.JSON(w, http.StatusOK, cat.Subjects())
	})
}
