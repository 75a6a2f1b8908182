// Package importer reads row-oriented upload files into the typed tuples
// the training modules consume. Malformed rows are skipped and counted,
// never fatal: bulk uploads are expected to partially succeed.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// QuotaRow is one parsed department quota line. Line keeps the source
// row number for downstream failure reports.
type QuotaRow struct {
	Line       int
	Department string
	Quota      int
}

// RowError records why a single row was skipped.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Report summarises a parse pass over an upload.
type Report struct {
	Total   int        `json:"total"`
	Parsed  int        `json:"parsed"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

// ReadQuotaRows parses (department, quota) tuples from a CSV stream.
// The first row is treated as a header and skipped. Rows with an empty
// department or a non-positive quota are counted and reported back.
func ReadQuotaRows(r io.Reader) ([]QuotaRow, Report, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, Report{}, err
	}

	rows := make([]QuotaRow, 0, len(records))
	report := Report{}
	for i, record := range records {
		if i == 0 {
			continue // header
		}
		report.Total++
		line := i + 1

		department := ""
		if len(record) > 0 {
			department = strings.TrimSpace(record[0])
		}
		if department == "" {
			report.skip(line, "missing department")
			continue
		}
		if len(record) < 2 {
			report.skip(line, "missing quota")
			continue
		}
		quota, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			report.skip(line, "quota is not a number")
			continue
		}
		if quota < 1 {
			report.skip(line, "quota must be at least 1")
			continue
		}

		rows = append(rows, QuotaRow{Line: line, Department: department, Quota: quota})
		report.Parsed++
	}
	return rows, report, nil
}

// ReadEmployeeIDs parses an employee-id list from the first column of a
// CSV stream, skipping the header row and empty cells.
func ReadEmployeeIDs(r io.Reader) ([]string, Report, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, Report{}, err
	}

	ids := make([]string, 0, len(records))
	report := Report{}
	for i, record := range records {
		if i == 0 {
			continue // header
		}
		report.Total++

		id := ""
		if len(record) > 0 {
			id = strings.TrimSpace(record[0])
		}
		if id == "" {
			report.skip(i+1, "missing employee id")
			continue
		}

		ids = append(ids, id)
		report.Parsed++
	}
	return ids, report, nil
}

func (r *Report) skip(line int, reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Line: line, Reason: reason})
}

func readAll(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return records, nil
}
