package models

import "github.com/ecosphere/ecosphere/internal/user"

// DefaultDisposalPoints is credited when a disposal omits points.
const DefaultDisposalPoints = 50

// DisposalInput is the request body for recording a waste disposal.
type DisposalInput struct {
	Type       string   `json:"type"`
	Points     *int     `json:"points,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Classification is one entry of the waste history.
type Classification struct {
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
	Points     int       `json:"points"`
	Date       Timestamp `json:"date"`
}

// WasteHistory is the user's classification history, newest first.
type WasteHistory struct {
	Classifications []Classification `json:"classifications"`
	Total           int              `json:"total"`
}

// NewWasteHistory converts stored classifications, reversing them to newest first.
func NewWasteHistory(entries []user.WasteClassification) WasteHistory {
	out := make([]Classification, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		out = append(out, Classification{
			Type:       e.Type,
			Confidence: e.Confidence,
			Points:     e.Points,
			Date:       Timestamp(e.Date),
		})
	}
	return WasteHistory{Classifications: out, Total: len(entries)}
}
