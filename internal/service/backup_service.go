package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
	"github.com/noah-isme/sma-substitute-api/pkg/jobs"
	"github.com/noah-isme/sma-substitute-api/pkg/storage"
)

// BackupJobType labels scheduled backup jobs on the worker queue.
const BackupJobType = "backup"

const scheduledBackupJobID = "scheduled-backup"

// Backup workbook sheet names.
const (
	SheetSchedule      = "orario"
	SheetSubstitutions = "storico"
	SheetAbsences      = "assenze"
)

type backupScheduleReader interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
}

type backupHistoryReader interface {
	AllSubstitutions(ctx context.Context) ([]models.CommittedSubstitution, error)
	AllAbsences(ctx context.Context) ([]models.AbsenceRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// BackupConfig tunes backup retention and download links.
type BackupConfig struct {
	APIPrefix string
	Retention time.Duration
	Interval  time.Duration
}

// BackupResult describes a stored workbook.
type BackupResult struct {
	ID           string         `json:"id"`
	RelativePath string         `json:"-"`
	Token        string         `json:"token"`
	URL          string         `json:"url"`
	Rows         map[string]int `json:"rows"`
	ExpiresAt    time.Time      `json:"expiresAt"`
}

// BackupDownload is an opened backup file.
type BackupDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
	ExpiresAt time.Time
}

// BackupService snapshots the timetable and both history tables into one workbook.
type downloadSigner interface {
	Sign(backupID, relPath string) (string, time.Time, error)
	Verify(token string) (storage.DownloadClaims, error)
}

type BackupService struct {
	schedule backupScheduleReader
	history  backupHistoryReader
	storage  fileStorage
	xlsx     *export.XLSXExporter
	signer   downloadSigner
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      BackupConfig
	now      func() time.Time
}

// NewBackupService constructs a BackupService.
func NewBackupService(schedule backupScheduleReader, history backupHistoryReader, files fileStorage, signer downloadSigner, cfg BackupConfig, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	return &BackupService{
		schedule: schedule,
		history:  history,
		storage:  files,
		xlsx:     export.NewXLSXExporter(),
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithMetrics counts backup runs on m.
func (s *BackupService) WithMetrics(m *MetricsService) *BackupService {
	s.metrics = m
	return s
}

// Create writes a workbook with the orario, storico and assenze sheets and
// returns a signed download link.
func (s *BackupService) Create(ctx context.Context) (*BackupResult, error) {
	result, err := s.create(ctx)
	s.metrics.RecordBackup(err)
	return result, err
}

func (s *BackupService) create(ctx context.Context) (*BackupResult, error) {
	entries, err := s.schedule.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read schedule")
	}
	substitutions, err := s.history.AllSubstitutions(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read history")
	}
	absences, err := s.history.AllAbsences(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read absences")
	}
	SortScheduleEntries(entries)

	payload, err := s.xlsx.Render(
		export.Sheet{Name: SheetSchedule, Data: ScheduleDataset(entries)},
		export.Sheet{Name: SheetSubstitutions, Data: substitutionDataset(substitutions)},
		export.Sheet{Name: SheetAbsences, Data: absenceDataset(absences)},
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render backup")
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("backup_%s_%s.xlsx", s.now().Format("20060102_150405"), id[:8])
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to store backup")
	}
	token, expiresAt, err := s.signer.Sign(id, relPath)
	if err != nil {
		if delErr := s.storage.Delete(relPath); delErr != nil {
			s.logger.Warn("failed to remove unsigned backup", zap.String("file", relPath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign backup link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	result := &BackupResult{
		ID:           id,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/backups/%s", prefix, token),
		Rows: map[string]int{
			SheetSchedule:      len(entries),
			SheetSubstitutions: len(substitutions),
			SheetAbsences:      len(absences),
		},
		ExpiresAt: expiresAt,
	}
	s.logger.Info("backup created",
		zap.String("backup_id", id),
		zap.String("file", relPath),
		zap.Int("schedule_rows", len(entries)),
		zap.Int("substitution_rows", len(substitutions)),
		zap.Int("absence_rows", len(absences)),
	)
	return result, nil
}

// Resolve validates a download token and opens the backup.
func (s *BackupService) Resolve(token string) (*BackupDownload, error) {
	claims, err := s.signer.Verify(token)
	if errors.Is(err, storage.ErrExpiredToken) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired; create a new backup")
	}
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	relPath, expiresAt := claims.Path, claims.ExpiresAt
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
		}
		return nil, appErrors.Storage(err, "unable to open backup")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Storage(err, "unable to open backup")
	}
	return &BackupDownload{File: file, Filename: filepath.Base(relPath), SizeBytes: info.Size(), ExpiresAt: expiresAt}, nil
}

// HandleJob runs a queued backup and prunes expired files.
func (s *BackupService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != BackupJobType {
		return jobs.Permanent(fmt.Errorf("unexpected job type %s", job.Type))
	}
	if _, err := s.Create(ctx); err != nil {
		return err
	}
	removed, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		s.logger.Warn("backup cleanup failed", zap.Error(err))
		return nil
	}
	if len(removed) > 0 {
		s.logger.Info("old backups removed", zap.Int("files", len(removed)))
	}
	return nil
}

// StartSchedule enqueues a backup job every configured interval until ctx ends.
func (s *BackupService) StartSchedule(ctx context.Context, queue jobDispatcher) {
	if s.cfg.Interval <= 0 || queue == nil {
		return
	}
	ticker := time.NewTicker(s.cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				err := queue.Enqueue(jobs.Job{ID: scheduledBackupJobID, Type: BackupJobType, Payload: tick.UTC()})
				switch {
				case errors.Is(err, jobs.ErrDuplicate):
					s.logger.Debug("previous scheduled backup still pending")
				case err != nil:
					s.logger.Warn("failed to enqueue backup", zap.Error(err))
				}
			}
		}
	}()
}

func substitutionDataset(rows []models.CommittedSubstitution) export.Dataset {
	data := export.Dataset{Headers: []string{"data", "giorno", "docente", "ore"}}
	for _, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"data":    r.Date,
			"giorno":  string(r.Day),
			"docente": r.Teacher,
			"ore":     strconv.Itoa(r.Hours),
		})
	}
	return data
}

func absenceDataset(rows []models.AbsenceRecord) export.Dataset {
	data := export.Dataset{Headers: []string{"data", "giorno", "docente", "ora", "classe"}}
	for _, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"data":    r.Date,
			"giorno":  string(r.Day),
			"docente": r.Teacher,
			"ora":     string(r.Period),
			"classe":  r.ClassName,
		})
	}
	return data
}
