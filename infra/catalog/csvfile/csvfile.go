// Package csvfile reads and writes catalog snapshots as delimited text, one
// row per meeting. Rows sharing a CRN are merged into one section.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/gocarina/gocsv"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/factory"
	"github.com/kilianp07/classplan/core/model"
)

// Row is the on-disk layout.
type Row struct {
	Subject    string `csv:"subject"`
	Number     string `csv:"number"`
	Title      string `csv:"title"`
	CRN        string `csv:"crn"`
	Type       string `csv:"type"`
	Section    string `csv:"section"`
	Days       string `csv:"days"`
	Time       string `csv:"time"`
	Status     string `csv:"status"`
	Instructor string `csv:"instructor"`
	Location   string `csv:"location"`
}

type Config struct {
	Path      string `json:"path"`
	Delimiter string `json:"delimiter"`
}

func (c Config) comma() (rune, error) {
	if c.Delimiter == "" {
		return ',', nil
	}
	r, n := utf8.DecodeRuneInString(c.Delimiter)
	if n != len(c.Delimiter) || r == '"' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	return r, nil
}

// Source loads a catalog file on every fetch.
type Source struct {
	path  string
	comma rune
}

func init() {
	_ = catalog.RegisterSource("csv", func(conf map[string]any) (catalog.Source, error) {
		var cfg Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return New(cfg)
	})
}

func New(cfg Config) (*Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csv source: path is required")
	}
	comma, err := cfg.comma()
	if err != nil {
		return nil, err
	}
	return &Source{path: cfg.Path, comma: comma}, nil
}

func (s *Source) Name() string { return "csv" }

func (s *Source) Fetch(ctx context.Context) (*catalog.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	meta := catalog.Meta{Source: s.Name(), Term: s.path, FetchedAt: time.Now().UTC()}
	if st, err := f.Stat(); err == nil {
		meta.FetchedAt = st.ModTime().UTC()
	}
	return Read(f, s.comma, meta)
}

// Read parses rows into a catalog. Sections keep file order.
func Read(r io.Reader, comma rune, meta catalog.Meta) (*catalog.Catalog, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	var rows []Row
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("parse catalog csv: %w", err)
	}

	type pending struct {
		key model.ClassKey
		sec model.Section
	}
	var order []*pending
	byCRN := make(map[string]*pending)
	titles := make(map[model.ClassKey]string)
	for i, row := range rows {
		line := i + 2
		key := model.NewClassKey(row.Subject, row.Number)
		ivs, err := model.ParseMeeting(row.Days, row.Time)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if row.Title != "" {
			titles[key] = row.Title
		}
		if p, ok := byCRN[row.CRN]; ok {
			if p.key != key {
				return nil, fmt.Errorf("line %d: CRN %s already used by %s", line, row.CRN, p.key)
			}
			p.sec.Intervals = append(p.sec.Intervals, ivs...)
			continue
		}
		p := &pending{key: key, sec: model.Section{
			CRN:        row.CRN,
			Type:       row.Type,
			Label:      row.Section,
			Status:     row.Status,
			Instructor: row.Instructor,
			Location:   row.Location,
			Intervals:  ivs,
		}}
		byCRN[row.CRN] = p
		order = append(order, p)
	}

	b := catalog.NewBuilder(meta)
	for _, p := range order {
		if err := b.Add(p.key, p.sec); err != nil {
			return nil, err
		}
	}
	for k, t := range titles {
		b.SetTitle(k, t)
	}
	return b.Build(), nil
}

// Rows flattens a catalog into one row per meeting day group. Sections
// without meetings produce a single ARRANGED row.
func Rows(cat *catalog.Catalog) []Row {
	var out []Row
	cat.Each(func(k model.ClassKey, s model.Section) {
		base := Row{
			Subject:    k.Subject,
			Number:     k.Number,
			Title:      cat.Title(k),
			CRN:        s.CRN,
			Type:       s.Type,
			Section:    s.Label,
			Status:     s.Status,
			Instructor: s.Instructor,
			Location:   s.Location,
		}
		if len(s.Intervals) == 0 {
			base.Days, base.Time = "n.a.", "ARRANGED"
			out = append(out, base)
			return
		}
		for _, iv := range s.Intervals {
			r := base
			r.Days, r.Time = iv.Days.String(), iv.TimeRange()
			out = append(out, r)
		}
	})
	return out
}

// Write serialises cat with a header row.
func Write(w io.Writer, cat *catalog.Catalog, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	rows := Rows(cat)
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
