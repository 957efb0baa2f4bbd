// Package format maps scored recall candidates to the stable external
// result shape, deriving severity and country from the record's text.
package format

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recallwatch/recallsearch/internal/models"
	"github.com/recallwatch/recallsearch/pkg/utils"
)

// maxDescriptionLen caps the description carried in the external shape.
const maxDescriptionLen = 1000

// Formatter converts scored candidates into external results. A record that
// cannot be mapped is logged and dropped; the rest of the page proceeds.
type Formatter struct {
	logger *zap.Logger
}

// NewFormatter creates a formatter. A nil logger is replaced with a no-op.
func NewFormatter(logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{logger: logger}
}

// Format maps each candidate to the external shape. Every declared output
// field is always present, with "" or "Unknown" filling missing data.
func (f *Formatter) Format(scored []models.ScoredCandidate) []models.ExternalResult {
	results := make([]models.ExternalResult, 0, len(scored))
	for _, sc := range scored {
		res, err := f.formatOne(sc)
		if err != nil {
			f.logger.Warn("dropping malformed record from results",
				zap.String("record_id", sc.Record.ID),
				zap.Error(err),
			)
			continue
		}
		results = append(results, res)
	}
	return results
}

func (f *Formatter) formatOne(sc models.ScoredCandidate) (models.ExternalResult, error) {
	rec := sc.Record
	if strings.TrimSpace(rec.ID) == "" {
		return models.ExternalResult{}, fmt.Errorf("record has no identifier (agency=%q product=%q)",
			rec.Agency, utils.Truncate(rec.ProductName, 40))
	}

	recallDate := ""
	if rec.RecallDate != nil {
		recallDate = rec.RecallDate.Format("2006-01-02")
	}

	return models.ExternalResult{
		ID:           rec.ID,
		Title:        synthesizeTitle(rec.Brand, rec.ProductName),
		ProductName:  rec.ProductName,
		Brand:        rec.Brand,
		SourceAgency: rec.Agency,
		RecallDate:   recallDate,
		Hazard:       rec.Hazard,
		Description:  utils.Truncate(rec.Description, maxDescriptionLen),
		URL:          rec.URL,
		Severity:     DeriveSeverity(rec.Hazard, rec.RecallReason),
		Country:      DeriveCountry(rec.Agency),
		Score:        sc.Score,
	}, nil
}

// synthesizeTitle joins brand and product name when both are present, uses
// whichever exists otherwise, and falls back to "Unknown" when neither does.
func synthesizeTitle(brand, productName string) string {
	brand = strings.TrimSpace(brand)
	productName = strings.TrimSpace(productName)
	switch {
	case brand != "" && productName != "":
		return brand + " - " + productName
	case productName != "":
		return productName
	case brand != "":
		return brand
	default:
		return "Unknown"
	}
}
