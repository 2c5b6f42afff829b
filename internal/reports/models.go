package reports

import (
	"time"

	"github.com/google/uuid"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady  = "ready"
	StatusFailed = "failed"
)

// CreateReportRequest is the request to render a nutrition report
type CreateReportRequest struct {
	AthleteID       uuid.UUID `json:"athlete_id"`
	From            string    `json:"from"`   // YYYY-MM-DD
	To              string    `json:"to"`     // YYYY-MM-DD
	Format          string    `json:"format"` // "pdf" or "csv"
	IncludeRepeated *bool     `json:"include_repeated,omitempty"`
}

// ReportDTO is the response representation of a report
type ReportDTO struct {
	ID          uuid.UUID `json:"id"`
	AthleteID   uuid.UUID `json:"athlete_id"`
	Format      string    `json:"format"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	DownloadURL string    `json:"download_url,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	Error       *string   `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

// Download is either inline bytes or a redirect target.
type Download struct {
	Data        []byte
	ContentType string
	Filename    string
	RedirectURL string
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/pdf"
}
