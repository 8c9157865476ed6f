package registrar

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kilianp07/classplan/core/model"
)

// The registrar has used several table layouts over the years.
var tableSelectors = []string{"table#table-alt-b", "table.tablesorter", "table.tableitems", "table"}

var (
	termLink    = regexp.MustCompile(`/schedule/(\d{4})/([a-z]+)/?$`)
	subjectCode = regexp.MustCompile(`^[A-Z]{2,5}$`)
	spaces      = regexp.MustCompile(`\s+`)
)

// Section pages emit a self-closing div that breaks the row structure.
func sanitize(body []byte) string {
	return strings.ReplaceAll(string(body), `class="section-meeting"/>`, `class="section-meeting">`)
}

func parseDocument(r io.Reader) (*goquery.Document, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(sanitize(body)))
}

func clean(s string) string { return strings.TrimSpace(spaces.ReplaceAllString(s, " ")) }

// cellLines returns one entry per meeting when a cell stacks several, and the
// whole cell text otherwise.
func cellLines(td *goquery.Selection) []string {
	var lines []string
	td.Find("div").Each(func(_ int, d *goquery.Selection) {
		if d.Find("div").Length() == 0 {
			lines = append(lines, clean(d.Text()))
		}
	})
	if len(lines) == 0 {
		return []string{clean(td.Text())}
	}
	return lines
}

type row map[string][]string

func (r row) get(col string) string { return strings.Join(r[col], " ") }

// parseTable maps the first matching table onto its header row. Rows whose
// cell count differs from the header are decoration and skipped.
func parseTable(doc *goquery.Document) []row {
	var table *goquery.Selection
	for _, sel := range tableSelectors {
		if t := doc.Find(sel).First(); t.Length() > 0 {
			table = t
			break
		}
	}
	if table == nil {
		return nil
	}
	var headers []string
	var out []row
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if headers == nil {
			tr.Find("th").Each(func(_ int, th *goquery.Selection) {
				headers = append(headers, clean(th.Text()))
			})
			return
		}
		cells := tr.Find("td")
		if cells.Length() != len(headers) {
			return
		}
		r := make(row, len(headers))
		cells.Each(func(i int, td *goquery.Selection) {
			r[headers[i]] = cellLines(td)
		})
		out = append(out, r)
	})
	return out
}

// parseTerm finds the current schedule link on the landing page.
func parseTerm(doc *goquery.Document) (year, term string, ok bool) {
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		m := termLink.FindStringSubmatch(a.AttrOr("href", ""))
		if m == nil {
			return true
		}
		year, term, ok = m[1], m[2], true
		return false
	})
	return year, term, ok
}

func parseSubjects(doc *goquery.Document) []string {
	var out []string
	seen := make(map[string]bool)
	doc.Find("td.fl[title]").Each(func(_ int, td *goquery.Selection) {
		code := td.AttrOr("title", "")
		if subjectCode.MatchString(code) && clean(td.Text()) == code && !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	})
	return out
}

type listedClass struct {
	key   model.ClassKey
	title string
}

func parseClasses(subject string, doc *goquery.Document) []listedClass {
	var out []listedClass
	for _, r := range parseTable(doc) {
		subj := r.get("Subject Code")
		if subj == "" {
			subj = subject
		}
		num := r.get("Number")
		if num == "" {
			continue
		}
		out = append(out, listedClass{key: model.NewClassKey(subj, num), title: r.get("Course Title")})
	}
	return out
}

// parseSections turns the section table of one class into sections. A row
// without a CRN carries an extra meeting of the section above it. Rows with
// unreadable meetings are dropped and reported.
func parseSections(doc *goquery.Document) ([]model.Section, []error) {
	var (
		out     []model.Section
		skipped []error
		dropped bool
	)
	for _, r := range parseTable(doc) {
		crn := r.get("CRN")
		ivs, err := meetings(r)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("CRN %q: %w", crn, err))
			if crn != "" {
				dropped = true
			}
			continue
		}
		if crn == "" {
			if len(out) > 0 && !dropped {
				last := &out[len(out)-1]
				last.Intervals = append(last.Intervals, ivs...)
			}
			continue
		}
		dropped = false
		out = append(out, model.Section{
			CRN:        crn,
			Type:       r.get("Type"),
			Label:      r.get("Section"),
			Status:     r.get("Status"),
			Instructor: strings.Join(r["Instructor"], "; "),
			Location:   strings.Join(r["Location"], "; "),
			Intervals:  ivs,
		})
	}
	return out, skipped
}

func meetings(r row) ([]model.Interval, error) {
	days, times := r["Days"], r["Time"]
	var out []model.Interval
	for i, t := range times {
		d := ""
		if i < len(days) {
			d = days[i]
		}
		ivs, err := model.ParseMeeting(d, t)
		if err != nil {
			return nil, err
		}
		out = append(out, ivs...)
	}
	return out, nil
}
