package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	domrepo "FinSight/internal/domain/repository"
)

// filingNamespace seeds filing row ids, so a redelivered filing maps onto its existing row.
var filingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("finsight/sec_filings"))

// FilingID is the row id of a company's filing file.
func FilingID(companyID, fileID string) uuid.UUID {
	return uuid.NewSHA1(filingNamespace, []byte(companyID+"/"+fileID))
}

// filingRow is the storage shape of a parsed filing, shared by both backends.
type filingRow struct {
	ID            uuid.UUID
	CompanyID     string
	FilingType    string
	FilingDate    *time.Time
	FileID        string
	Format        string
	ContentLength int
	CompanyName   string
	CIK           string
	Sections      []byte
	Tables        int
	Facts         []byte
	CreatedAt     time.Time
}

type storedFact struct {
	Value      string `json:"value"`
	ContextRef string `json:"context_ref"`
	UnitRef    string `json:"unit_ref,omitempty"`
}

func newFilingRow(rec domrepo.FilingRecord, now time.Time) (*filingRow, error) {
	if rec.Filing == nil {
		return nil, fmt.Errorf("filing record has no parsed filing")
	}
	f := rec.Filing

	sections := make(map[string]string, len(f.Sections))
	for name, s := range f.Sections {
		sections[name] = s.Text
	}
	secJSON, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}

	facts := make(map[string]storedFact, len(f.Facts))
	for name, fact := range f.Facts {
		facts[name] = storedFact{Value: fact.Value, ContextRef: fact.ContextRef, UnitRef: fact.UnitRef}
	}
	factJSON, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("marshal facts: %w", err)
	}

	row := &filingRow{
		ID:            FilingID(rec.CompanyID, f.FileID),
		CompanyID:     rec.CompanyID,
		FilingType:    rec.FilingType,
		FileID:        f.FileID,
		Format:        string(f.Format),
		ContentLength: f.ContentLength,
		CompanyName:   f.Metadata.CompanyName,
		CIK:           f.Metadata.CIK,
		Sections:      secJSON,
		Tables:        len(f.Tables),
		Facts:         factJSON,
		CreatedAt:     now.UTC(),
	}
	if !rec.FilingDate.IsZero() {
		d := time.Date(rec.FilingDate.Year(), rec.FilingDate.Month(), rec.FilingDate.Day(), 0, 0, 0, 0, time.UTC)
		row.FilingDate = &d
	}
	return row, nil
}
