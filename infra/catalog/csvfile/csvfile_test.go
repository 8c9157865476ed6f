package csvfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/factory"
	"github.com/kilianp07/classplan/core/model"
)

const sample = `subject;number;title;crn;type;section;days;time;status;instructor;location
CS;225;Data Structures;37140;Lecture;AL1;MW;09:00 AM - 09:50 AM;Open;Evans;Siebel
CS;225;Data Structures;37140;Lecture;AL1;F;01:00 PM - 02:50 PM;Open;Evans;Siebel
CS;225;;37141;Laboratory;AYA;n.a.;ARRANGED;Closed;;
MATH;241;Calculus III;50001;Lecture;BL1;TR;11:00 AM - 12:15 PM;Open;;
`

func TestReadMergesMeetings(t *testing.T) {
	cat, err := Read(strings.NewReader(sample), ';', catalog.Meta{Source: "csv"})
	require.NoError(t, err)

	cs225 := model.NewClassKey("CS", "225")
	assert.Equal(t, []model.ClassKey{cs225, model.NewClassKey("MATH", "241")}, cat.Classes())
	assert.Equal(t, 3, cat.SectionCount())
	assert.Equal(t, "Data Structures", cat.Title(cs225))

	_, lec, ok := cat.Lookup("37140")
	require.True(t, ok)
	require.Len(t, lec.Intervals, 2)
	assert.Equal(t, "MW 09:00 AM - 09:50 AM", lec.Intervals[0].String())
	assert.Equal(t, "F 01:00 PM - 02:50 PM", lec.Intervals[1].String())

	_, lab, _ := cat.Lookup("37141")
	assert.True(t, lab.Closed())
	assert.Empty(t, lab.Intervals)
}

func TestReadRejectsBadRows(t *testing.T) {
	header := "subject,number,title,crn,type,section,days,time,status,instructor,location\n"
	_, err := Read(strings.NewReader(header+"CS,225,,1,Lecture,A,MW,10:00 AM - 09:00 AM,Open,,\n"), ',', catalog.Meta{})
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
	assert.Contains(t, err.Error(), "line 2")

	_, err = Read(strings.NewReader(header+
		"CS,225,,1,Lecture,A,MW,09:00 AM - 09:50 AM,Open,,\n"+
		"CS,233,,1,Lecture,A,TR,09:00 AM - 09:50 AM,Open,,\n"), ',', catalog.Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRN 1 already used by CS 225")
}

func TestWriteThenRead(t *testing.T) {
	cat, err := Read(strings.NewReader(sample), ';', catalog.Meta{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cat, ','))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "subject,number,title,crn,type,section,days,time,status,instructor,location", lines[0])
	assert.Len(t, lines, 5)

	again, err := Read(&buf, ',', catalog.Meta{})
	require.NoError(t, err)
	var before, after []model.Section
	cat.Each(func(_ model.ClassKey, s model.Section) { before = append(before, s) })
	again.Each(func(_ model.ClassKey, s model.Section) { after = append(after, s) })
	assert.Equal(t, before, after)
}

func TestSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	src, err := catalog.NewSource(factory.ModuleConfig{Type: "csv", Conf: map[string]any{
		"path":      path,
		"delimiter": ";",
	}})
	require.NoError(t, err)
	cat, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "csv", cat.Meta().Source)
	assert.Equal(t, 2, cat.Len())

	_, err = New(Config{})
	assert.Error(t, err)
	_, err = New(Config{Path: path, Delimiter: ";;"})
	assert.Error(t, err)

	missing, err := New(Config{Path: filepath.Join(t.TempDir(), "none.csv")})
	require.NoError(t, err)
	_, err = missing.Fetch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
