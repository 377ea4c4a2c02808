package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// ProcessRepository handles persistence of project processes.
type ProcessRepository struct {
	db *sqlx.DB
}

// NewProcessRepository constructs the repository.
func NewProcessRepository(db *sqlx.DB) *ProcessRepository {
	return &ProcessRepository{db: db}
}

const processColumns = `id, project_id, name, description, recording_type, assigned_hours, min_grade, requires_attendance, position, created_at, updated_at`

// FindByID returns a process by its ID.
func (r *ProcessRepository) FindByID(ctx context.Context, id string) (*models.Process, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_processes WHERE id = $1`, processColumns)
	var process models.Process
	if err := r.db.GetContext(ctx, &process, query, id); err != nil {
		return nil, err
	}
	return &process, nil
}

// ListByProject returns the processes of a project in declared order.
func (r *ProcessRepository) ListByProject(ctx context.Context, projectID string) ([]models.Process, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_processes WHERE project_id = $1 ORDER BY position, created_at`, processColumns)
	var processes []models.Process
	if err := r.db.SelectContext(ctx, &processes, query, projectID); err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return processes, nil
}

// Create persists a new process.
func (r *ProcessRepository) Create(ctx context.Context, process *models.Process) error {
	if process.ID == "" {
		process.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if process.CreatedAt.IsZero() {
		process.CreatedAt = now
	}
	process.UpdatedAt = now
	const query = `INSERT INTO vm_processes (id, project_id, name, description, recording_type, assigned_hours, min_grade, requires_attendance, position, created_at, updated_at)
VALUES (:id, :project_id, :name, :description, :recording_type, :assigned_hours, :min_grade, :requires_attendance, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, process); err != nil {
		return fmt.Errorf("create process: %w", err)
	}
	return nil
}

// Update persists changes to an existing process.
func (r *ProcessRepository) Update(ctx context.Context, process *models.Process) error {
	process.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vm_processes SET name = :name, description = :description, recording_type = :recording_type,
assigned_hours = :assigned_hours, min_grade = :min_grade, requires_attendance = :requires_attendance,
position = :position, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, process); err != nil {
		return fmt.Errorf("update process: %w", err)
	}
	return nil
}

// Delete removes a process.
func (r *ProcessRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM vm_processes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	return nil
}
