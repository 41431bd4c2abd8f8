package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/amireldb/task-management-api/internal/cache"
	"github.com/amireldb/task-management-api/internal/domain"
	"github.com/amireldb/task-management-api/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

// ListFilter narrows a task listing. Ordering takes a single column name with
// an optional leading "-" for descending, e.g. "-created_at" (the default).
type ListFilter struct {
	Status   *domain.TaskStatus
	DueDate  *time.Time
	Search   string
	Ordering string
}

// TaskPatch carries a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *domain.TaskStatus
}

// TaskService implements the owner-scoped task operations. Every method takes
// the caller's user ID; tasks of other users behave as if they did not exist.
type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

// Create makes a new pending task owned by the caller. The title is stored
// trimmed and the due date, when supplied, must not be in the past.
func (s *TaskService) Create(ctx context.Context, userID int64, title, desc string, dueDate *time.Time) (domain.Task, error) {
	title, err := ValidateTitle(title)
	if err != nil {
		return domain.Task{}, err
	}
	if err := ValidateDueDate(dueDate, true); err != nil {
		return domain.Task{}, err
	}

	t, err := s.repo.Create(ctx, domain.Task{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(desc),
		DueDate:     dueDate,
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// List returns the caller's tasks matching the filter, default newest first.
func (s *TaskService) List(ctx context.Context, userID int64, f ListFilter) ([]domain.Task, error) {
	orderBy, desc := parseOrdering(f.Ordering)
	rf := repo.TaskFilter{
		Status:  f.Status,
		DueDate: f.DueDate,
		Search:  strings.TrimSpace(f.Search),
		OrderBy: orderBy,
		Desc:    desc,
	}
	return s.cached(ctx, userID, listView(rf), func() ([]domain.Task, error) {
		return s.repo.List(ctx, userID, rf)
	})
}

// Pending returns the caller's pending tasks, newest first.
func (s *TaskService) Pending(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.statusView(ctx, userID, domain.StatusPending)
}

// Completed returns the caller's completed tasks, newest first.
func (s *TaskService) Completed(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.statusView(ctx, userID, domain.StatusCompleted)
}

// Overdue returns the caller's pending tasks whose due date has passed,
// soonest due first.
func (s *TaskService) Overdue(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.cached(ctx, userID, "overdue", func() ([]domain.Task, error) {
		return s.repo.Overdue(ctx, userID)
	})
}

// Get returns one of the caller's tasks by ID.
func (s *TaskService) Get(ctx context.Context, userID, id int64) (domain.Task, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return t, nil
}

// Update applies a partial update to one of the caller's tasks. Ownership is
// immutable; the due date is only validated against the clock at creation, so
// an update may set one in the past.
func (s *TaskService) Update(ctx context.Context, userID, id int64, p TaskPatch) (domain.Task, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	patch := existing
	if p.Title != nil {
		title, err := ValidateTitle(*p.Title)
		if err != nil {
			return domain.Task{}, err
		}
		patch.Title = title
	}
	if p.Description != nil {
		patch.Description = strings.TrimSpace(*p.Description)
	}
	if p.DueDate != nil {
		patch.DueDate = p.DueDate
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return domain.Task{}, ErrInvalidStatus
		}
		patch.Status = *p.Status
	}
	t, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// Complete marks one of the caller's tasks as completed.
func (s *TaskService) Complete(ctx context.Context, userID, id int64) (domain.Task, error) {
	t, err := s.repo.SetStatus(ctx, userID, id, domain.StatusCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// Delete permanently removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateCache(ctx, userID)
	return nil
}

// Stats returns the caller's task counts by status.
func (s *TaskService) Stats(ctx context.Context, userID int64) (repo.TaskCounts, error) {
	return s.repo.Counts(ctx, userID)
}

func (s *TaskService) statusView(ctx context.Context, userID int64, st domain.TaskStatus) ([]domain.Task, error) {
	rf := repo.TaskFilter{Status: &st, OrderBy: "created_at", Desc: true}
	return s.cached(ctx, userID, string(st), func() ([]domain.Task, error) {
		return s.repo.List(ctx, userID, rf)
	})
}

// cached serves the view from Redis when possible, deduplicating concurrent
// misses per user+view with singleflight.
func (s *TaskService) cached(ctx context.Context, userID int64, view string, fetch func() ([]domain.Task, error)) ([]domain.Task, error) {
	if s.cache == nil {
		return fetch()
	}
	sfKey := strconv.FormatInt(userID, 10) + ":" + view
	v, err, _ := s.sf.Do(sfKey, func() (interface{}, error) {
		if list, err := s.cache.Get(ctx, userID, view); err == nil && list != nil {
			return list, nil
		}
		list, err := fetch()
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, userID, view, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Task), nil
}

func (s *TaskService) invalidateCache(ctx context.Context, userID int64) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, userID)
	}
}

// parseOrdering maps a DRF-style ordering parameter onto a column and
// direction, defaulting to newest-created first.
func parseOrdering(ordering string) (orderBy string, desc bool) {
	ordering = strings.TrimSpace(ordering)
	if ordering == "" {
		return "created_at", true
	}
	if strings.HasPrefix(ordering, "-") {
		return strings.TrimPrefix(ordering, "-"), true
	}
	return ordering, false
}

// listView fingerprints a filter so each distinct listing caches separately.
func listView(f repo.TaskFilter) string {
	var b strings.Builder
	b.WriteString("list:")
	if f.Status != nil {
		b.WriteString("s=" + string(*f.Status) + ";")
	}
	if f.DueDate != nil {
		b.WriteString("d=" + f.DueDate.UTC().Format(time.RFC3339) + ";")
	}
	if f.Search != "" {
		b.WriteString("q=" + strings.ToLower(f.Search) + ";")
	}
	b.WriteString("o=" + f.OrderBy)
	if f.Desc {
		b.WriteString("-")
	}
	return b.String()
}
