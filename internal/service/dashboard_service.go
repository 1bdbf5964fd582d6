package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

type dashboardRepository interface {
	AdminCounts(ctx context.Context) (*models.AdminDashboard, error)
	TeacherCounts(ctx context.Context, teacherID int64) (*models.TeacherDashboard, error)
	StudentCounts(ctx context.Context, studentID int64) (*models.StudentDashboard, error)
}

// DashboardService serves per-role summary counters, cached per
// principal for a short TTL.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Admin returns the system-wide dashboard.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	const key = "dashboard:admin"

	var cached models.AdminDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	dashboard, err := s.repo.AdminCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin dashboard")
	}

	if err := s.cache.Set(ctx, key, dashboard, s.ttl); err != nil {
		s.logger.Warn("failed to cache admin dashboard", zap.Error(err))
	}
	return dashboard, nil
}

// Teacher returns the workload dashboard for the calling teacher.
func (s *DashboardService) Teacher(ctx context.Context, principal models.Principal) (*models.TeacherDashboard, error) {
	if !principal.HasProfile() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for account")
	}
	key := fmt.Sprintf("dashboard:teacher:%d", principal.ProfileID)

	var cached models.TeacherDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	dashboard, err := s.repo.TeacherCounts(ctx, principal.ProfileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher dashboard")
	}

	if err := s.cache.Set(ctx, key, dashboard, s.ttl); err != nil {
		s.logger.Warn("failed to cache teacher dashboard", zap.Error(err))
	}
	return dashboard, nil
}

// Student returns the academic dashboard for the calling student.
func (s *DashboardService) Student(ctx context.Context, principal models.Principal) (*models.StudentDashboard, error) {
	if !principal.HasProfile() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no student profile for account")
	}
	key := fmt.Sprintf("dashboard:student:%d", principal.ProfileID)

	var cached models.StudentDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	dashboard, err := s.repo.StudentCounts(ctx, principal.ProfileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student dashboard")
	}

	if err := s.cache.Set(ctx, key, dashboard, s.ttl); err != nil {
		s.logger.Warn("failed to cache student dashboard", zap.Error(err))
	}
	return dashboard, nil
}

// Invalidate drops all dashboard cache entries after data mutations.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
