package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// ProjectRepository handles persistence of vinculación projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, ep_site_id, period_id, code, title, description, type, modality, state, level, planned_hours, min_participant_hours, created_at, updated_at`

// List returns projects filtered by the provided criteria with a total count.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	var conditions []string
	var args []interface{}

	if filter.EPSiteID != "" {
		conditions = append(conditions, fmt.Sprintf("ep_site_id = $%d", len(args)+1))
		args = append(args, filter.EPSiteID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM vm_projects%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, projectColumns, clause, size, offset)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vm_projects%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// FindByID returns a project by its ID.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_projects WHERE id = $1`, projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// Create persists a new project. The partial unique index on
// (ep_site_id, period_id, level) for LINKED projects backs the level
// uniqueness invariant; a duplicate insert returns sql.ErrNoRows.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	const query = `INSERT INTO vm_projects (id, ep_site_id, period_id, code, title, description, type, modality, state, level, planned_hours, min_participant_hours, created_at, updated_at)
VALUES (:id, :ep_site_id, :period_id, :code, :title, :description, :type, :modality, :state, :level, :planned_hours, :min_participant_hours, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// UpdateState transitions the project state, guarded by the expected current
// state so concurrent transitions lose cleanly instead of double-applying.
func (r *ProjectRepository) UpdateState(ctx context.Context, id string, from, to models.ProjectState) (bool, error) {
	const query = `UPDATE vm_projects SET state = $3, updated_at = $4 WHERE id = $1 AND state = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update project state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update project state: %w", err)
	}
	return affected == 1, nil
}

// TakenLevels returns the levels already occupied by LINKED projects for an
// EP-site and period. Cancelled projects release their level.
func (r *ProjectRepository) TakenLevels(ctx context.Context, epSiteID, periodID string) ([]int, error) {
	const query = `SELECT level FROM vm_projects
WHERE ep_site_id = $1 AND period_id = $2 AND type = $3 AND level IS NOT NULL AND state <> $4
ORDER BY level`
	var levels []int
	if err := r.db.SelectContext(ctx, &levels, query, epSiteID, periodID, models.ProjectTypeLinked, models.ProjectStateCancelled); err != nil {
		return nil, fmt.Errorf("taken levels: %w", err)
	}
	return levels, nil
}

// ExistsByCode checks uniqueness of the project code.
func (r *ProjectRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM vm_projects WHERE code = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check project code: %w", err)
	}
	return true, nil
}

// ListVisibleForStudent returns IN_PROGRESS projects of the student's
// EP-site and period, the pool shown in the self-service view.
func (r *ProjectRepository) ListVisibleForStudent(ctx context.Context, epSiteID, periodID string) ([]models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_projects WHERE ep_site_id = $1 AND period_id = $2 AND state = $3 ORDER BY created_at DESC`, projectColumns)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, epSiteID, periodID, models.ProjectStateInProgress); err != nil {
		return nil, fmt.Errorf("list student projects: %w", err)
	}
	return projects, nil
}
