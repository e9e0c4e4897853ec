// internal/groundtruth/groundtruth.go
package groundtruth

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	commonerrors "eligibility-workers/internal/common/errors"
)

// Record holds the curated reference fields for one application.
type Record struct {
	ApplicationID string
	FullName      string
	NationalID    string
	Age           int
	MaritalStatus string
}

// Table is a read-only lookup of ground truth records keyed by application id.
type Table struct {
	records map[string]Record
}

// Load reads the ground truth CSV. Expected header:
// application_id,full_name,emirates_id,age,marital_status
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, commonerrors.NewGroundTruthLoadFailedError(path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, commonerrors.NewGroundTruthLoadFailedError(path, err)
	}
	if len(rows) == 0 {
		return &Table{records: map[string]Record{}}, nil
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"application_id", "full_name", "emirates_id", "age", "marital_status"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("ground truth missing column %q", required)
		}
	}

	records := make(map[string]Record, len(rows)-1)
	for _, row := range rows[1:] {
		rec := Record{
			ApplicationID: strings.TrimSpace(row[cols["application_id"]]),
			FullName:      strings.TrimSpace(row[cols["full_name"]]),
			NationalID:    strings.TrimSpace(row[cols["emirates_id"]]),
			MaritalStatus: strings.TrimSpace(row[cols["marital_status"]]),
		}
		if age, err := strconv.Atoi(strings.TrimSpace(row[cols["age"]])); err == nil {
			rec.Age = age
		}
		if rec.ApplicationID == "" {
			continue
		}
		records[rec.ApplicationID] = rec
	}

	return &Table{records: records}, nil
}

// NewTable builds a table from in-memory records.
func NewTable(records ...Record) *Table {
	m := make(map[string]Record, len(records))
	for _, rec := range records {
		m[rec.ApplicationID] = rec
	}
	return &Table{records: m}
}

// Lookup returns the record for an application id, if present.
func (t *Table) Lookup(applicationID string) (Record, bool) {
	rec, ok := t.records[applicationID]
	return rec, ok
}

// Len returns the number of loaded records.
func (t *Table) Len() int {
	return len(t.records)
}
