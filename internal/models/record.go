// Package models defines core data structures for recall records, queries, and results.
package models

import "time"

// Agency codes for the two highest-priority sources in the dataset.
const (
	AgencyFDA  = "FDA"
	AgencyCPSC = "CPSC"
)

// RecallRecord is a single recall notice as stored in the data store.
// All text fields are optional; a record with several empty fields is
// still a valid match target.
type RecallRecord struct {
	ID           string     `json:"id" db:"id"`
	Agency       string     `json:"agency" db:"agency"`
	ProductName  string     `json:"product_name" db:"product_name"`
	Brand        string     `json:"brand" db:"brand"`
	Manufacturer string     `json:"manufacturer" db:"manufacturer"`
	Description  string     `json:"description" db:"description"`
	Hazard       string     `json:"hazard" db:"hazard"`
	RecallReason string     `json:"recall_reason" db:"recall_reason"`
	RecallDate   *time.Time `json:"recall_date,omitempty" db:"recall_date"`
	URL          string     `json:"url" db:"url"`
}

// Field identifies one of the searched text fields of a RecallRecord.
type Field string

const (
	FieldProductName  Field = "product_name"
	FieldBrand        Field = "brand"
	FieldManufacturer Field = "manufacturer"
	FieldDescription  Field = "description"
	FieldHazard       Field = "hazard"
	FieldRecallReason Field = "recall_reason"
)

// SearchedFields lists every text field, in scoring order.
var SearchedFields = []Field{
	FieldProductName,
	FieldBrand,
	FieldManufacturer,
	FieldDescription,
	FieldHazard,
	FieldRecallReason,
}

// FieldValue returns the value of the named field, or "" for an unknown field.
func (r *RecallRecord) FieldValue(f Field) string {
	switch f {
	case FieldProductName:
		return r.ProductName
	case FieldBrand:
		return r.Brand
	case FieldManufacturer:
		return r.Manufacturer
	case FieldDescription:
		return r.Description
	case FieldHazard:
		return r.Hazard
	case FieldRecallReason:
		return r.RecallReason
	default:
		return ""
	}
}

// ScoredCandidate pairs a record with its relevance score and the fields
// that contributed to the match. It lives only inside the ranking pipeline.
type ScoredCandidate struct {
	Record        RecallRecord
	Score         float64
	MatchedFields []Field
}
