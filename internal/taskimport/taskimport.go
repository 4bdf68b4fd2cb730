// Package taskimport reads schedule rows from the spreadsheet CSV export site teams use.
package taskimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"sitemaster/internal/model"
)

// MaxRows bounds a single import.
const MaxRows = 5000

var ErrTooManyRows = fmt.Errorf("import exceeds %d rows", MaxRows)

// Row is one accepted line. Line is 1-based and counts the header.
type Row struct {
	Line   int
	Title  string
	Start  model.Date
	Due    model.Date
	Weight float64
}

// Skipped explains why a line was not imported.
type Skipped struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Result struct {
	Rows    []Row
	Skipped []Skipped
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads title,start,end[,weight] rows after a header line.
// Rows missing one of the first three fields or carrying a malformed date are skipped
// and reported. A missing or non-numeric weight becomes 0.
func Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	res := &Result{}
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				header = false
				res.Skipped = append(res.Skipped, Skipped{Line: parseErr.StartLine, Reason: parseErr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		// csv.Reader drops empty lines, so take the physical line from the reader
		line, _ := reader.FieldPos(0)
		if len(res.Rows) >= MaxRows {
			return nil, ErrTooManyRows
		}
		if isBlank(record) {
			continue
		}

		row, reason := parseRecord(line, record)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: reason})
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func parseRecord(line int, record []string) (Row, string) {
	if len(record) < 3 {
		return Row{}, "expected at least 3 columns"
	}
	title := strings.TrimSpace(record[0])
	rawStart := strings.TrimSpace(record[1])
	rawDue := strings.TrimSpace(record[2])
	if title == "" || rawStart == "" || rawDue == "" {
		return Row{}, "title, start and end are required"
	}

	start, err := model.ParseDate(rawStart)
	if err != nil {
		return Row{}, "invalid start date: " + rawStart
	}
	due, err := model.ParseDate(rawDue)
	if err != nil {
		return Row{}, "invalid end date: " + rawDue
	}
	if due.Before(start.Time) {
		return Row{}, "end date is before start date"
	}

	return Row{
		Line:   line,
		Title:  title,
		Start:  start,
		Due:    due,
		Weight: parseWeight(record),
	}, ""
}

func parseWeight(record []string) float64 {
	if len(record) < 4 {
		return 0
	}
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(record[3]), "%"))
	raw = strings.ReplaceAll(raw, ",", ".")
	w, err := strconv.ParseFloat(raw, 64)
	// ParseFloat accepts NaN; treat it like any other unreadable weight
	if err != nil || math.IsNaN(w) || w < 0 {
		return 0
	}
	if w > 100 {
		return 100
	}
	return w
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Tasks turns accepted rows into new To Do / Medium tasks for projectID.
// newID supplies ids and firstPosition continues the project's ordering.
func (res *Result) Tasks(projectID string, firstPosition int, newID func() string) []model.Task {
	tasks := make([]model.Task, 0, len(res.Rows))
	for i, row := range res.Rows {
		start := row.Start
		tasks = append(tasks, model.Task{
			ID:        newID(),
			ProjectID: projectID,
			Title:     row.Title,
			Status:    model.TaskToDo,
			Priority:  model.PriorityMedium,
			StartDate: &start,
			DueDate:   row.Due,
			Weight:    row.Weight,
			Position:  firstPosition + i,
		})
	}
	return tasks
}
