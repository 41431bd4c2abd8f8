package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amireldb/task-management-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskFilter narrows and orders a task listing. Zero value means all of the
// caller's tasks, newest-created first.
type TaskFilter struct {
	Status  *domain.TaskStatus
	DueDate *time.Time // equality match
	Search  string     // case-insensitive substring over title and description
	OrderBy string     // created_at, updated_at, due_date or status
	Desc    bool
}

// TaskCounts summarizes a user's tasks by status.
type TaskCounts struct {
	Total     int64
	Pending   int64
	Completed int64
}

// TaskRepo provides task persistence. Every operation is scoped to the owning
// user: a task belonging to someone else behaves as if it did not exist.
type TaskRepo interface {
	Create(ctx context.Context, t domain.Task) (domain.Task, error)
	GetByID(ctx context.Context, userID, id int64) (domain.Task, error)
	List(ctx context.Context, userID int64, f TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, userID, id int64, patch domain.Task) (domain.Task, error)
	SetStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) (domain.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	Overdue(ctx context.Context, userID int64) ([]domain.Task, error)
	Counts(ctx context.Context, userID int64) (TaskCounts, error)
}

// PGTaskRepo implements TaskRepo with Postgres.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

const taskColumns = `id, user_id, title, description, status, due_date, created_at, updated_at`

// orderColumns whitelists sortable columns; anything else falls back to created_at.
var orderColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"status":     true,
}

func (r *PGTaskRepo) Create(ctx context.Context, t domain.Task) (domain.Task, error) {
	query := `
		INSERT INTO tasks (user_id, title, description, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + taskColumns
	var out domain.Task
	err := r.db.QueryRow(ctx, query, t.UserID, t.Title, t.Description, t.DueDate).Scan(
		&out.ID, &out.UserID, &out.Title, &out.Description, &out.Status,
		&out.DueDate, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

func (r *PGTaskRepo) GetByID(ctx context.Context, userID, id int64) (domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND id = $2`
	var t domain.Task
	err := r.db.QueryRow(ctx, query, userID, id).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTaskRepo) List(ctx context.Context, userID int64, f TaskFilter) ([]domain.Task, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)
	args := []any{userID}

	if f.Status != nil {
		args = append(args, *f.Status)
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if f.DueDate != nil {
		args = append(args, *f.DueDate)
		fmt.Fprintf(&sb, " AND due_date = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		fmt.Fprintf(&sb, " AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	col := f.OrderBy
	if !orderColumns[col] {
		col = "created_at"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", col, dir, dir)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// Update rewrites the mutable fields of a task. Ownership and created_at are
// never touched; updated_at is refreshed by the database.
func (r *PGTaskRepo) Update(ctx context.Context, userID, id int64, patch domain.Task) (domain.Task, error) {
	query := `
		UPDATE tasks SET title = $3, description = $4, status = $5, due_date = $6, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + taskColumns
	var t domain.Task
	err := r.db.QueryRow(ctx, query, userID, id, patch.Title, patch.Description, patch.Status, patch.DueDate).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTaskRepo) SetStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) (domain.Task, error) {
	query := `
		UPDATE tasks SET status = $3, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + taskColumns
	var t domain.Task
	err := r.db.QueryRow(ctx, query, userID, id, status).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Delete permanently removes the task. Reports pgx.ErrNoRows when the task is
// absent or owned by someone else.
func (r *PGTaskRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGTaskRepo) Overdue(ctx context.Context, userID int64) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND status = 'pending' AND due_date IS NOT NULL AND due_date < NOW()
		ORDER BY due_date ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *PGTaskRepo) Counts(ctx context.Context, userID int64) (TaskCounts, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'completed')
		FROM tasks WHERE user_id = $1`
	var c TaskCounts
	err := r.db.QueryRow(ctx, query, userID).Scan(&c.Total, &c.Pending, &c.Completed)
	return c, err
}

func scanTasks(rows pgx.Rows) ([]domain.Task, error) {
	var list []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status,
			&t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
