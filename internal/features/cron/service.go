package cron_feature

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/features/audit"
	"go-insight/internal/features/dashboard"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type CronService interface {
	CreateRefreshJob(ctx context.Context, job *RefreshJob) error
	GetRefreshJob(ctx context.Context, id string) (*RefreshJob, error)
	ListRefreshJobs(ctx context.Context, filter map[string]interface{}) ([]RefreshJob, error)
	UpdateRefreshJob(ctx context.Context, job *RefreshJob) error
	DeleteRefreshJob(ctx context.Context, id string) error
	ExecuteRefreshJob(ctx context.Context, id string) error
	GetRefreshJobLogs(ctx context.Context, jobID string, limit int) ([]RefreshJobLog, error)
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
	RegisterJob(job *RefreshJob) error
	UnregisterJob(id string) error
}

type CronServiceImpl struct {
	repo             CronRepository
	dashboardService dashboard.DashboardService
	auditService     audit.AuditService
	logger           *zap.Logger

	scheduler  *cron.Cron
	jobEntries map[string]cron.EntryID
	mu         sync.RWMutex
}

func NewCronService(
	repo CronRepository,
	dashboardService dashboard.DashboardService,
	auditService audit.AuditService,
	logger *zap.Logger,
) CronService {
	return &CronServiceImpl{
		repo:             repo,
		dashboardService: dashboardService,
		auditService:     auditService,
		logger:           logger,
		jobEntries:       make(map[string]cron.EntryID),
	}
}

func (s *CronServiceImpl) CreateRefreshJob(ctx context.Context, job *RefreshJob) error {
	schedule, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if job.DashboardID == "" {
		return fmt.Errorf("dashboard_id is required")
	}

	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	nextRun := schedule.Next(now)
	job.NextRun = &nextRun

	if err := s.repo.Create(ctx, job); err != nil {
		return err
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionCron, "refresh_jobs", job.ID.Hex(), map[string]common_models.Change{
		"refresh_job": {New: job},
	})

	if job.Active && s.scheduler != nil {
		if err := s.RegisterJob(job); err != nil {
			s.logger.Error("failed to register refresh job", zap.String("job", job.ID.Hex()), zap.Error(err))
		}
	}

	return nil
}

func (s *CronServiceImpl) GetRefreshJob(ctx context.Context, id string) (*RefreshJob, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CronServiceImpl) ListRefreshJobs(ctx context.Context, filter map[string]interface{}) ([]RefreshJob, error) {
	return s.repo.List(ctx, filter)
}

func (s *CronServiceImpl) UpdateRefreshJob(ctx context.Context, job *RefreshJob) error {
	schedule, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	nextRun := schedule.Next(time.Now())
	job.NextRun = &nextRun

	oldJob, _ := s.GetRefreshJob(ctx, job.ID.Hex())

	if err := s.repo.Update(ctx, job); err != nil {
		return err
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionCron, "refresh_jobs", job.ID.Hex(), map[string]common_models.Change{
		"refresh_job": {Old: oldJob, New: job},
	})

	s.UnregisterJob(job.ID.Hex())

	if job.Active && s.scheduler != nil {
		if err := s.RegisterJob(job); err != nil {
			s.logger.Error("failed to register updated refresh job", zap.String("job", job.ID.Hex()), zap.Error(err))
		}
	}

	return nil
}

func (s *CronServiceImpl) DeleteRefreshJob(ctx context.Context, id string) error {
	oldJob, _ := s.GetRefreshJob(ctx, id)
	s.UnregisterJob(id)
	err := s.repo.Delete(ctx, id)
	if err == nil {
		_ = s.auditService.LogChange(ctx, common_models.AuditActionCron, "refresh_jobs", id, map[string]common_models.Change{
			"refresh_job": {Old: oldJob, New: "DELETED"},
		})
	}
	return err
}

func (s *CronServiceImpl) ExecuteRefreshJob(ctx context.Context, id string) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("refresh job not found")
	}

	return s.executeJobInternal(ctx, job)
}

func (s *CronServiceImpl) executeJobInternal(ctx context.Context, job *RefreshJob) error {
	startTime := time.Now()

	logEntry := &RefreshJobLog{
		JobID:     job.ID,
		JobName:   job.Name,
		StartTime: startTime,
		Status:    "running",
	}

	if err := s.repo.CreateLog(ctx, logEntry); err != nil {
		s.logger.Error("failed to create refresh job log", zap.String("job", job.ID.Hex()), zap.Error(err))
	}

	execError := s.dashboardService.RefreshByID(ctx, job.DashboardID, job.RangeDays)

	endTime := time.Now()
	logEntry.EndTime = &endTime
	if execError != nil {
		logEntry.Status = "failed"
		logEntry.Error = execError.Error()
	} else {
		logEntry.Status = "success"
	}

	if err := s.repo.UpdateLog(ctx, logEntry); err != nil {
		s.logger.Error("failed to update refresh job log", zap.String("job", job.ID.Hex()), zap.Error(err))
	}

	schedule, _ := cron.ParseStandard(job.Schedule)
	nextRun := schedule.Next(time.Now())
	if err := s.repo.UpdateLastRun(ctx, job.ID.Hex(), startTime, &nextRun); err != nil {
		s.logger.Error("failed to update last run", zap.String("job", job.ID.Hex()), zap.Error(err))
	}

	return execError
}

func (s *CronServiceImpl) GetRefreshJobLogs(ctx context.Context, jobID string, limit int) ([]RefreshJobLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.GetLogs(ctx, jobID, limit)
}

func (s *CronServiceImpl) InitializeScheduler(ctx context.Context) error {
	s.logger.Info("initializing refresh scheduler")
	s.scheduler = cron.New()
	jobs, err := s.repo.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active refresh jobs: %w", err)
	}

	for i := range jobs {
		if err := s.RegisterJob(&jobs[i]); err != nil {
			s.logger.Error("failed to register refresh job", zap.String("job", jobs[i].ID.Hex()), zap.Error(err))
		}
	}

	s.scheduler.Start()
	return nil
}

func (s *CronServiceImpl) StopScheduler() error {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}

func (s *CronServiceImpl) RegisterJob(job *RefreshJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return fmt.Errorf("scheduler not initialized")
	}

	jobID := job.ID.Hex()
	jobFunc := func() {
		ctx := context.Background()
		latest, err := s.repo.GetByID(ctx, jobID)
		if err != nil || latest == nil || !latest.Active {
			return
		}
		_ = s.executeJobInternal(ctx, latest)
	}

	entryID, err := s.scheduler.AddFunc(job.Schedule, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add refresh job to scheduler: %w", err)
	}

	s.jobEntries[jobID] = entryID
	return nil
}

func (s *CronServiceImpl) UnregisterJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobEntries[id]; exists {
		s.scheduler.Remove(entryID)
		delete(s.jobEntries, id)
	}
	return nil
}
