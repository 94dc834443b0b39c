package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/features/audit"
	"go-insight/internal/features/chartdata"
	"go-insight/internal/features/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DashboardService interface {
	CreateDashboard(ctx context.Context, dashboard *DashboardConfig, userID primitive.ObjectID) error
	GetDashboard(ctx context.Context, id string, userID primitive.ObjectID) (*DashboardConfig, error)
	ListUserDashboards(ctx context.Context, userID primitive.ObjectID) ([]DashboardConfig, error)
	UpdateDashboard(ctx context.Context, id string, dashboard *DashboardConfig, userID primitive.ObjectID) error
	DeleteDashboard(ctx context.Context, id string, userID primitive.ObjectID) error
	CloneDashboard(ctx context.Context, id string, userID primitive.ObjectID) (*DashboardConfig, error)
	SetDefaultDashboard(ctx context.Context, dashboardID string, userID primitive.ObjectID) error

	GetDashboardData(ctx context.Context, dashboardID string, userID primitive.ObjectID) (map[string]*chartdata.WidgetRenderState, error)
	RefreshDashboard(ctx context.Context, dashboardID string, userID primitive.ObjectID, tr query.TimeRange) (uint64, error)
	// RefreshByID refreshes without an owner check, for scheduled jobs.
	RefreshByID(ctx context.Context, dashboardID string, rangeDays int) error
}

type DashboardServiceImpl struct {
	DashboardRepo DashboardRepository
	Refresher     *Refresher
	AuditService  audit.AuditService
}

func NewDashboardService(
	dashboardRepo DashboardRepository,
	refresher *Refresher,
	auditService audit.AuditService,
) DashboardService {
	return &DashboardServiceImpl{
		DashboardRepo: dashboardRepo,
		Refresher:     refresher,
		AuditService:  auditService,
	}
}

func (s *DashboardServiceImpl) CreateDashboard(ctx context.Context, dashboard *DashboardConfig, userID primitive.ObjectID) error {
	dashboard.UserID = userID

	if err := validateWidgetRefs(dashboard.Widgets); err != nil {
		return err
	}

	err := s.DashboardRepo.Create(ctx, dashboard)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionDashboard, "dashboards", dashboard.ID.Hex(), map[string]common_models.Change{
			"dashboard": {New: dashboard},
		})
	}
	return err
}

func (s *DashboardServiceImpl) GetDashboard(ctx context.Context, id string, userID primitive.ObjectID) (*DashboardConfig, error) {
	dashboard, err := s.DashboardRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dashboard.UserID != userID && !dashboard.IsShared {
		return nil, errors.New("access denied")
	}

	return dashboard, nil
}

func (s *DashboardServiceImpl) ListUserDashboards(ctx context.Context, userID primitive.ObjectID) ([]DashboardConfig, error) {
	return s.DashboardRepo.FindByUserID(ctx, userID.Hex())
}

func (s *DashboardServiceImpl) UpdateDashboard(ctx context.Context, id string, dashboard *DashboardConfig, userID primitive.ObjectID) error {
	existing, err := s.DashboardRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if existing.UserID != userID {
		return errors.New("access denied: you can only update your own dashboards")
	}

	if err := validateWidgetRefs(dashboard.Widgets); err != nil {
		return err
	}

	err = s.DashboardRepo.Update(ctx, id, dashboard)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionDashboard, "dashboards", id, map[string]common_models.Change{
			"dashboard": {Old: existing, New: dashboard},
		})
	}
	return err
}

func (s *DashboardServiceImpl) DeleteDashboard(ctx context.Context, id string, userID primitive.ObjectID) error {
	existing, err := s.DashboardRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if existing.UserID != userID {
		return errors.New("access denied: you can only delete your own dashboards")
	}

	err = s.DashboardRepo.Delete(ctx, id)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionDashboard, "dashboards", existing.Name, map[string]common_models.Change{
			"dashboard": {Old: existing, New: "DELETED"},
		})
	}
	return err
}

func (s *DashboardServiceImpl) CloneDashboard(ctx context.Context, id string, userID primitive.ObjectID) (*DashboardConfig, error) {
	src, err := s.GetDashboard(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	clone := *src
	clone.ID = primitive.NewObjectID()
	clone.UserID = userID
	clone.Name = src.Name + " (Copy)"
	clone.IsDefault = false
	clone.Widgets = append([]DashboardWidgetRef(nil), src.Widgets...)

	if err := s.DashboardRepo.Create(ctx, &clone); err != nil {
		return nil, err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionClone, "dashboards", clone.ID.Hex(), map[string]common_models.Change{
		"dashboard": {Old: src, New: &clone},
	})
	return &clone, nil
}

func (s *DashboardServiceImpl) SetDefaultDashboard(ctx context.Context, dashboardID string, userID primitive.ObjectID) error {
	return s.DashboardRepo.SetDefault(ctx, userID.Hex(), dashboardID)
}

func (s *DashboardServiceImpl) GetDashboardData(ctx context.Context, dashboardID string, userID primitive.ObjectID) (map[string]*chartdata.WidgetRenderState, error) {
	dashboard, err := s.GetDashboard(ctx, dashboardID, userID)
	if err != nil {
		return nil, err
	}
	return s.Refresher.States(dashboard.ID.Hex()), nil
}

func (s *DashboardServiceImpl) RefreshDashboard(ctx context.Context, dashboardID string, userID primitive.ObjectID, tr query.TimeRange) (uint64, error) {
	dashboard, err := s.GetDashboard(ctx, dashboardID, userID)
	if err != nil {
		return 0, err
	}

	cycle := s.Refresher.Refresh(dashboard, tr)
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRefresh, "dashboards", dashboardID, map[string]common_models.Change{
		"cycle": {New: cycle},
	})
	return cycle, nil
}

func (s *DashboardServiceImpl) RefreshByID(ctx context.Context, dashboardID string, rangeDays int) error {
	dashboard, err := s.DashboardRepo.Get(ctx, dashboardID)
	if err != nil {
		return err
	}

	if rangeDays < 1 {
		rangeDays = 7
	}
	now := time.Now().UTC()
	tr := query.TimeRange{From: now.AddDate(0, 0, -rangeDays), To: now}

	s.Refresher.Refresh(dashboard, tr)
	return nil
}

func validateWidgetRefs(refs []DashboardWidgetRef) error {
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref.WidgetID == "" {
			return fmt.Errorf("widget '%s' is missing a widget_id", ref.Title)
		}
		if seen[ref.WidgetID] {
			return fmt.Errorf("widget '%s' appears more than once", ref.WidgetID)
		}
		seen[ref.WidgetID] = true
	}
	return nil
}
