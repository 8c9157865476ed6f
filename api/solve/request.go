package solve

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/kilianp07/classplan/api/respond"
	"github.com/kilianp07/classplan/core/model"
	"github.com/kilianp07/classplan/core/solver"
)

const maxBody = 1 << 20

// Request carries the fields of the schedule planner form. Every field is a
// JSON array; in form posts each field holds the array as a string.
// BannedTimes holds two clock strings and BannedDays five checkboxes
// (Mon..Fri) per banned row.
type Request struct {
	BannedTimes []string `json:"bannedTimes"`
	BannedDays  []bool   `json:"bannedDays"`
	SubCodes    FlexList `json:"subCodes"`
	Nums        FlexList `json:"nums"`
	CurCRNs     FlexList `json:"curCRNs"`
	LockCRNs    FlexList `json:"lockCRNs"`
}

// FlexList accepts an array of strings and numbers, e.g. [225, "241"].
type FlexList []string

func (f *FlexList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(FlexList, 0, len(raw))
	for _, r := range raw {
		if string(r) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, strings.TrimSpace(s))
			continue
		}
		var n json.Number
		if err := json.Unmarshal(r, &n); err != nil {
			return fmt.Errorf("expected number or string, got %s", r)
		}
		out = append(out, n.String())
	}
	*f = out
	return nil
}

// DecodeRequest reads a JSON body or a url-encoded form.
func DecodeRequest(r *http.Request) (Request, error) {
	var req Request
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
		if err := dec.Decode(&req); err != nil {
			return req, &respond.BadRequest{Msg: fmt.Sprintf("decode body: %v", err)}
		}
		return req, nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		return req, &respond.BadRequest{Msg: fmt.Sprintf("parse form: %v", err)}
	}
	fields := map[string]any{
		"bannedTimes": &req.BannedTimes,
		"bannedDays":  &req.BannedDays,
		"subCodes":    &req.SubCodes,
		"nums":        &req.Nums,
		"curCRNs":     &req.CurCRNs,
		"lockCRNs":    &req.LockCRNs,
	}
	for name, dst := range fields {
		v := r.PostForm.Get(name)
		if v == "" {
			continue
		}
		if err := json.Unmarshal([]byte(v), dst); err != nil {
			return req, &respond.BadRequest{Msg: fmt.Sprintf("field %s: %v", name, err)}
		}
	}
	return req, nil
}

// Constraints converts the form encoding into solver constraints.
func (r Request) Constraints() (solver.Constraints, error) {
	var cs solver.Constraints
	if len(r.SubCodes) != len(r.Nums) {
		return cs, &respond.BadRequest{Msg: fmt.Sprintf("%d subCodes but %d nums", len(r.SubCodes), len(r.Nums))}
	}
	for i := range r.SubCodes {
		subj, num := r.SubCodes[i], r.Nums[i]
		if subj == "" && num == "" {
			continue
		}
		key := model.NewClassKey(subj, num)
		if key.IsZero() {
			return cs, &respond.BadRequest{Msg: fmt.Sprintf("class %d: subject and number are both required", i)}
		}
		cs.Classes = append(cs.Classes, key)
	}
	banned, err := BannedIntervals(r.BannedDays, r.BannedTimes)
	if err != nil {
		return cs, err
	}
	cs.Banned = banned
	cs.Picked = lo.Compact([]string(r.CurCRNs))
	cs.Locked = lo.Compact([]string(r.LockCRNs))
	return cs, nil
}

// BannedIntervals decodes the flat banned grid: row i uses days[5i:5i+5] and
// times[2i:2i+2]. A row without any checked day bans nothing.
func BannedIntervals(days []bool, times []string) ([]model.Interval, error) {
	if len(times)%2 != 0 || len(days) != len(times)/2*len(model.SchoolWeek) {
		return nil, &model.IntervalError{
			Input:  fmt.Sprintf("%d days, %d times", len(days), len(times)),
			Reason: "banned days and times do not describe whole rows",
		}
	}
	dayRows := lo.Chunk(days, len(model.SchoolWeek))
	timeRows := lo.Chunk(times, 2)
	var out []model.Interval
	for i, checks := range dayRows {
		var wd model.Weekdays
		for j, on := range checks {
			if on {
				wd |= model.SchoolWeek[j]
			}
		}
		if wd.Empty() {
			continue
		}
		start, err := model.ParseClock(timeRows[i][0])
		if err != nil {
			return nil, err
		}
		end, err := model.ParseClock(timeRows[i][1])
		if err != nil {
			return nil, err
		}
		iv, err := model.NewInterval(wd, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}
