package reports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrReportNotFound = errors.New("report not found")
)

// TotalsSource computes the nutrient totals a report renders.
type TotalsSource interface {
	Totals(ctx context.Context, q nutrition.Query) (*nutrition.TotalsResult, error)
}

// Service handles reports business logic
type Service struct {
	reports      storage.ReportsStorage
	users        storage.Storage
	totals       TotalsSource
	access       *access.Checker
	blobStore    blob.Store // nil: bytes live in the report row
	maxRangeDays int
}

func NewService(
	reports storage.ReportsStorage,
	users storage.Storage,
	totals TotalsSource,
	checker *access.Checker,
	blobStore blob.Store,
	maxRangeDays int,
) *Service {
	if maxRangeDays <= 0 {
		maxRangeDays = 90
	}
	return &Service{
		reports:      reports,
		users:        users,
		totals:       totals,
		access:       checker,
		blobStore:    blobStore,
		maxRangeDays: maxRangeDays,
	}
}

func (s *Service) localMode() bool {
	return s.blobStore == nil
}

// CreateReport renders the totals and stores the file. Render or upload
// failures are kept as a failed report instead of an error.
func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (*storage.ReportMeta, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != FormatPDF && format != FormatCSV {
		return nil, fmt.Errorf("%w: format must be 'pdf' or 'csv'", ErrInvalidRequest)
	}
	if req.AthleteID == uuid.Nil {
		return nil, fmt.Errorf("%w: athlete_id is required", ErrInvalidRequest)
	}
	from, err := calendar.Parse(req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrInvalidRequest, err)
	}
	to, err := calendar.Parse(req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrInvalidRequest, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidRequest)
	}
	if calendar.DaysBetween(from, to)+1 > s.maxRangeDays {
		return nil, fmt.Errorf("%w: date range exceeds maximum of %d days", ErrInvalidRequest, s.maxRangeDays)
	}

	if err := s.access.Athlete(ctx, req.AthleteID); err != nil {
		return nil, err
	}
	athlete, err := s.users.GetUser(ctx, req.AthleteID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, access.ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	includeRepeated := req.IncludeRepeated == nil || *req.IncludeRepeated
	totals, err := s.totals.Totals(ctx, nutrition.Query{
		AthleteID:       req.AthleteID,
		From:            req.From,
		To:              req.To,
		IncludeRepeated: includeRepeated,
	})
	if err != nil {
		if errors.Is(err, nutrition.ErrInvalidRequest) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("compute totals: %w", err)
	}

	meta := &storage.ReportMeta{
		ID:        uuid.New(),
		AthleteID: req.AthleteID,
		Format:    format,
		FromDate:  req.From,
		ToDate:    req.To,
		Status:    StatusReady,
	}

	data, err := Render(format, Sheet{
		AthleteName:     displayName(athlete),
		From:            req.From,
		To:              req.To,
		IncludeRepeated: includeRepeated,
		Totals:          totals,
	})
	if err == nil {
		err = s.store(ctx, meta, data)
	}
	if err != nil {
		log.Printf("WARNING: reports: report %s failed: %v", meta.ID, err)
		msg := err.Error()
		meta.Status = StatusFailed
		meta.Error = &msg
		meta.Data = nil
		meta.SizeBytes = 0
	}

	if err := s.reports.CreateReport(ctx, meta); err != nil {
		return nil, fmt.Errorf("save report metadata: %w", err)
	}
	return meta, nil
}

func (s *Service) store(ctx context.Context, meta *storage.ReportMeta, data []byte) error {
	meta.SizeBytes = int64(len(data))
	if s.localMode() {
		meta.Data = data
		return nil
	}
	key := fmt.Sprintf("reports/%s/%s_%s_%s.%s", meta.AthleteID, meta.FromDate, meta.ToDate, meta.ID, meta.Format)
	if err := s.blobStore.Put(ctx, key, data, contentType(meta.Format)); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	meta.ObjectKey = &key
	return nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.reports.GetReport(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.access.Athlete(ctx, meta.AthleteID); err != nil {
		if errors.Is(err, access.ErrForbidden) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return meta, nil
}

func (s *Service) ListReports(ctx context.Context, athleteID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	if err := s.access.Athlete(ctx, athleteID); err != nil {
		return nil, err
	}
	list, err := s.reports.ListReports(ctx, athleteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return list, nil
}

// DeleteReport removes the metadata; a failed object delete is only logged.
func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	meta, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}

	if !s.localMode() && meta.ObjectKey != nil {
		if err := s.blobStore.Delete(ctx, *meta.ObjectKey); err != nil {
			log.Printf("WARNING: reports: delete object %s: %v", *meta.ObjectKey, err)
		}
	}

	if err := s.reports.DeleteReport(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("delete report metadata: %w", err)
	}
	return nil
}

// DownloadURL is the URL clients should fetch; baseURL is the API origin.
func (s *Service) DownloadURL(ctx context.Context, meta *storage.ReportMeta, baseURL string) (string, error) {
	if meta.Status != StatusReady {
		return "", nil
	}
	if s.localMode() || meta.ObjectKey == nil {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), meta.ID), nil
	}
	return s.blobStore.DownloadURL(ctx, *meta.ObjectKey)
}

// Download returns inline bytes in local mode and a redirect for S3.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*Download, error) {
	meta, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta.Status != StatusReady {
		return nil, ErrReportNotFound
	}

	d := &Download{
		ContentType: contentType(meta.Format),
		Filename:    fmt.Sprintf("nutrition_%s_%s.%s", meta.FromDate, meta.ToDate, meta.Format),
	}
	if meta.ObjectKey == nil {
		d.Data = meta.Data
		return d, nil
	}
	if s.localMode() {
		return nil, fmt.Errorf("report %s is stored in object storage but no blob store is configured", meta.ID)
	}
	url, err := s.blobStore.DownloadURL(ctx, *meta.ObjectKey)
	if err != nil {
		return nil, err
	}
	d.RedirectURL = url
	return d, nil
}

func (s *Service) toDTO(ctx context.Context, meta *storage.ReportMeta, baseURL string) ReportDTO {
	url, err := s.DownloadURL(ctx, meta, baseURL)
	if err != nil {
		log.Printf("WARNING: reports: download url for %s: %v", meta.ID, err)
	}
	return ReportDTO{
		ID:          meta.ID,
		AthleteID:   meta.AthleteID,
		Format:      meta.Format,
		From:        meta.FromDate,
		To:          meta.ToDate,
		DownloadURL: url,
		SizeBytes:   meta.SizeBytes,
		Status:      meta.Status,
		Error:       meta.Error,
		CreatedAt:   meta.CreatedAt,
	}
}

func displayName(u *storage.User) string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}
