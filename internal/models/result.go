package models

// ExternalResult is the stable outward shape of one recall hit. Every field
// is always present; missing optional data is filled with explicit defaults.
type ExternalResult struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ProductName  string  `json:"product_name"`
	Brand        string  `json:"brand"`
	SourceAgency string  `json:"source_agency"`
	RecallDate   string  `json:"recall_date"`
	Hazard       string  `json:"hazard"`
	Description  string  `json:"description"`
	URL          string  `json:"url"`
	Severity     string  `json:"severity"`
	Country      string  `json:"country"`
	Score        float64 `json:"score"`
}

// SearchResponse is the envelope returned for a search request.
// Total is the number of candidates matched within the over-fetch window,
// not a full table count; an empty Results list with Total 0 is a normal,
// successful response.
type SearchResponse struct {
	Results   []ExternalResult `json:"results"`
	Total     int              `json:"total"`
	Query     string           `json:"query"`
	QueryTime int64            `json:"query_time_ms"`
}
