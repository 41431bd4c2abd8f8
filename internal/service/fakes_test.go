package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/amireldb/task-management-api/internal/domain"
	"github.com/amireldb/task-management-api/internal/repo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTaskRepo is an in-memory TaskRepo mirroring the Postgres semantics the
// services rely on: owner scoping via pgx.ErrNoRows, trimmed ordering,
// DB-managed timestamps. The clock advances one minute per write so created_at
// ordering is deterministic.
type fakeTaskRepo struct {
	nextID int64
	clock  time.Time
	tasks  map[int64]domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		tasks: map[int64]domain.Task{},
	}
}

func (r *fakeTaskRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *fakeTaskRepo) Create(_ context.Context, t domain.Task) (domain.Task, error) {
	r.nextID++
	now := r.tick()
	t.ID = r.nextID
	if t.Status == "" {
		t.Status = domain.StatusPending
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = t
	return t, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, userID, id int64) (domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return domain.Task{}, pgx.ErrNoRows
	}
	return t, nil
}

func (r *fakeTaskRepo) List(_ context.Context, userID int64, f repo.TaskFilter) ([]domain.Task, error) {
	var list []domain.Task
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.DueDate != nil && (t.DueDate == nil || !t.DueDate.Equal(*f.DueDate)) {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(t.Title), q) &&
				!strings.Contains(strings.ToLower(t.Description), q) {
				continue
			}
		}
		list = append(list, t)
	}
	sortTasks(list, f.OrderBy, f.Desc)
	return list, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, userID, id int64, patch domain.Task) (domain.Task, error) {
	existing, ok := r.tasks[id]
	if !ok || existing.UserID != userID {
		return domain.Task{}, pgx.ErrNoRows
	}
	existing.Title = patch.Title
	existing.Description = patch.Description
	existing.Status = patch.Status
	existing.DueDate = patch.DueDate
	existing.UpdatedAt = r.tick()
	r.tasks[id] = existing
	return existing, nil
}

func (r *fakeTaskRepo) SetStatus(_ context.Context, userID, id int64, status domain.TaskStatus) (domain.Task, error) {
	existing, ok := r.tasks[id]
	if !ok || existing.UserID != userID {
		return domain.Task{}, pgx.ErrNoRows
	}
	existing.Status = status
	existing.UpdatedAt = r.tick()
	r.tasks[id] = existing
	return existing, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, userID, id int64) error {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) Overdue(_ context.Context, userID int64) ([]domain.Task, error) {
	now := time.Now().UTC()
	var list []domain.Task
	for _, t := range r.tasks {
		if t.UserID == userID && t.Overdue(now) {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DueDate.Before(*list[j].DueDate) })
	return list, nil
}

func (r *fakeTaskRepo) Counts(_ context.Context, userID int64) (repo.TaskCounts, error) {
	var c repo.TaskCounts
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		c.Total++
		switch t.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusCompleted:
			c.Completed++
		}
	}
	return c, nil
}

func sortTasks(list []domain.Task, orderBy string, desc bool) {
	less := func(a, b domain.Task) bool {
		switch orderBy {
		case "updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		case "due_date":
			switch {
			case a.DueDate == nil || b.DueDate == nil:
				return b.DueDate == nil && a.DueDate != nil
			case !a.DueDate.Equal(*b.DueDate):
				return a.DueDate.Before(*b.DueDate)
			}
		case "status":
			if a.Status != b.Status {
				return a.Status < b.Status
			}
		default: // created_at
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	}
	sort.Slice(list, func(i, j int) bool {
		if desc {
			return less(list[j], list[i])
		}
		return less(list[i], list[j])
	})
}

// fakeUserRepo is an in-memory UserRepo with the same unique-violation
// behavior as Postgres: duplicates surface as pgconn.PgError 23505 carrying
// the constraint name.
type fakeUserRepo struct {
	nextID int64
	users  map[int64]domain.User
	tasks  *fakeTaskRepo // for cascade on Delete
}

func newFakeUserRepo(tasks *fakeTaskRepo) *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]domain.User{}, tasks: tasks}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func (r *fakeUserRepo) Create(_ context.Context, u domain.User) (domain.User, error) {
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return domain.User{}, uniqueViolation("users_username_key")
		}
		if existing.Email == u.Email {
			return domain.User{}, uniqueViolation("users_email_key")
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	delete(r.users, id)
	// ON DELETE CASCADE on tasks.user_id.
	if r.tasks != nil {
		for taskID, t := range r.tasks.tasks {
			if t.UserID == id {
				delete(r.tasks.tasks, taskID)
			}
		}
	}
	return nil
}
