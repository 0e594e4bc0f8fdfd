package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/models"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
	"github.com/lnjng/courselog-api/pkg/export"
	"github.com/lnjng/courselog-api/pkg/jobs"
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type exportURLSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string) (jobID, relPath string, expiresAt time.Time, err error)
}

// JobTypeExportProblems tags problem-bank export jobs on the queue.
const JobTypeExportProblems = "export_problems"

// ExportProblemsPayload is the queue payload for an export run.
type ExportProblemsPayload struct {
	JobID    string
	CourseID int64
	Format   models.ExportFormat
}

// ExportDownload references a completed export file on disk.
type ExportDownload struct {
	Job      *models.ExportJob
	FilePath string
}

// ExportStatusResponse is the job status projection, with a signed download
// URL once the file is ready.
type ExportStatusResponse struct {
	Job         *models.ExportJob `json:"job"`
	DownloadURL *string           `json:"download_url,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

// ExportService renders a course's problem bank to CSV or PDF in the
// background and serves the result through short-lived signed URLs.
type ExportService struct {
	repo     exportJobRepository
	problems courseProblems
	courses  courseTextSource
	storage  exportStorage
	signer   exportURLSigner
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewExportService constructs the service. The queue is attached later via
// SetQueue.
func NewExportService(repo exportJobRepository, problems courseProblems, courses courseTextSource, storage exportStorage, signer exportURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:     repo,
		problems: problems,
		courses:  courses,
		storage:  storage,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// SetQueue wires the background queue used by Enqueue.
func (s *ExportService) SetQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Enqueue creates a pending export job and schedules it.
func (s *ExportService) Enqueue(ctx context.Context, courseID int64, format models.ExportFormat) (*models.ExportJob, error) {
	switch format {
	case models.ExportFormatCSV, models.ExportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue is not running")
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Format:    format,
		Status:    models.ExportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    JobTypeExportProblems,
		Payload: ExportProblemsPayload{JobID: job.ID, CourseID: courseID, Format: format},
	})
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "enqueue failed"); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Run renders the export file for a queued job.
func (s *ExportService) Run(ctx context.Context, payload ExportProblemsPayload) error {
	if err := s.repo.MarkRunning(ctx, payload.JobID); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	filename, err := s.render(ctx, payload)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, payload.JobID, err.Error()); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.Error(markErr))
		}
		return err
	}

	if err := s.repo.MarkCompleted(ctx, payload.JobID, filename); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	s.logger.Info("export job completed",
		zap.String("job_id", payload.JobID), zap.Int64("course_id", payload.CourseID), zap.String("format", string(payload.Format)))
	return nil
}

func (s *ExportService) render(ctx context.Context, payload ExportProblemsPayload) (string, error) {
	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		return "", fmt.Errorf("load course: %w", err)
	}
	problems, err := s.problems.ListByCourse(ctx, payload.CourseID, nil)
	if err != nil {
		return "", fmt.Errorf("load problems: %w", err)
	}

	dataset := problemDataset(problems)
	var (
		data []byte
		ext  string
	)
	switch payload.Format {
	case models.ExportFormatPDF:
		data, err = s.pdf.Render(dataset, fmt.Sprintf("%s %s Problem Bank", course.Code, course.Title))
		ext = "pdf"
	default:
		data, err = s.csv.Render(dataset)
		ext = "csv"
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", payload.Format, err)
	}

	filename := fmt.Sprintf("%s.%s", payload.JobID, ext)
	if _, err := s.storage.Save(filename, data); err != nil {
		return "", fmt.Errorf("store export file: %w", err)
	}
	return filename, nil
}

// Status returns the job and, when complete, a signed download URL.
func (s *ExportService) Status(ctx context.Context, jobID string) (*ExportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	resp := &ExportStatusResponse{Job: job}
	if job.Status == models.ExportStatusCompleted && job.FilePath != nil && s.signer != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := "/api/exports/download?token=" + token
		resp.DownloadURL = &url
		resp.ExpiresAt = &expiresAt
	}
	return resp, nil
}

// ResolveDownload validates a signed token and returns the file to serve.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export downloads are not configured")
	}
	jobID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export file is not available")
	}

	return &ExportDownload{Job: job, FilePath: s.storage.Path(relPath)}, nil
}

func problemDataset(problems []models.ProblemWithCategories) export.Dataset {
	headers := []string{"ID", "Source", "Kind", "Description", "Notes", "Categories", "Incorrect"}
	rows := make([]map[string]string, 0, len(problems))
	for _, p := range problems {
		row := map[string]string{
			"ID":          fmt.Sprintf("%d", p.ID),
			"Source":      p.SourceTitle,
			"Kind":        p.SourceKind,
			"Description": p.Description,
			"Incorrect":   fmt.Sprintf("%t", p.IsIncorrect),
		}
		if p.Notes != nil {
			row["Notes"] = *p.Notes
		}
		if p.CategoryNames != nil {
			row["Categories"] = *p.CategoryNames
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
