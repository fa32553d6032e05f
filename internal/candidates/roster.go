package candidates

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// LoadRoster reads students from the first sheet of a workbook.
// Columns are located by header name; rows without an id are skipped.
func LoadRoster(path string) ([]Student, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster: no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("roster: read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("roster: no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.id == -1 {
		return nil, fmt.Errorf("roster: no id column in header %v", rows[0])
	}

	var out []Student
	for _, r := range rows[1:] {
		st := Student{
			ID:         cell(r, cols.id),
			FirstName:  cell(r, cols.first),
			LastName:   cell(r, cols.last),
			College:    cell(r, cols.college),
			Department: cell(r, cols.department),
		}
		if st.ID == "" {
			continue
		}
		if st.FirstName == "" && st.LastName == "" {
			st.FirstName = cell(r, cols.fullName)
		}
		out = append(out, st)
	}
	return out, nil
}

type rosterColumns struct {
	id, first, last, fullName, college, department int
}

// detectColumns matches header cells by keyword. Name checks run before the
// id check so "student name" is not taken for the id column.
func detectColumns(header []string) rosterColumns {
	c := rosterColumns{-1, -1, -1, -1, -1, -1}
	set := func(dst *int, i int) {
		if *dst == -1 {
			*dst = i
		}
	}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "first"):
			set(&c.first, i)
		case strings.Contains(l, "last") || strings.Contains(l, "surname"):
			set(&c.last, i)
		case strings.Contains(l, "college") || strings.Contains(l, "institut"):
			set(&c.college, i)
		case strings.Contains(l, "department") || strings.Contains(l, "dept") || strings.Contains(l, "branch"):
			set(&c.department, i)
		case strings.Contains(l, "name"):
			set(&c.fullName, i)
		case isIDHeader(l):
			set(&c.id, i)
		}
	}
	return c
}

var idWords = map[string]bool{"id": true, "studentid": true, "roll": true, "rollno": true, "regno": true}

// isIDHeader matches whole words only, so "candidate" or "residence" never count.
func isIDHeader(l string) bool {
	words := strings.FieldsFunc(l, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if idWords[w] {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
