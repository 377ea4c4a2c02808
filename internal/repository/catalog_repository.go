package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// CatalogRepository provides read-only access to the academic catalog
// (periods, EP-sites, matriculations). The catalog is owned by another
// system; this service never writes to it.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListPeriods returns all academic periods, newest first.
func (r *CatalogRepository) ListPeriods(ctx context.Context) ([]models.Period, error) {
	const query = `SELECT id, code, start_date, end_date, is_current FROM academic_periods ORDER BY start_date DESC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindPeriodByID returns a period by its ID.
func (r *CatalogRepository) FindPeriodByID(ctx context.Context, id string) (*models.Period, error) {
	const query = `SELECT id, code, start_date, end_date, is_current FROM academic_periods WHERE id = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// CurrentPeriod returns the single period flagged as current.
func (r *CatalogRepository) CurrentPeriod(ctx context.Context) (*models.Period, error) {
	const query = `SELECT id, code, start_date, end_date, is_current FROM academic_periods WHERE is_current = TRUE LIMIT 1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// ListEPSites returns every EP-site with school and campus names resolved.
func (r *CatalogRepository) ListEPSites(ctx context.Context) ([]models.EPSite, error) {
	const query = `SELECT ep.id, ep.school_id, ep.campus_id, sc.name AS school_name, ca.name AS campus_name
FROM ep_sites ep
JOIN schools sc ON sc.id = ep.school_id
JOIN campuses ca ON ca.id = ep.campus_id
ORDER BY sc.name, ca.name`
	var sites []models.EPSite
	if err := r.db.SelectContext(ctx, &sites, query); err != nil {
		return nil, fmt.Errorf("list ep-sites: %w", err)
	}
	return sites, nil
}

// FindEPSiteByID returns an EP-site by its ID.
func (r *CatalogRepository) FindEPSiteByID(ctx context.Context, id string) (*models.EPSite, error) {
	const query = `SELECT ep.id, ep.school_id, ep.campus_id, sc.name AS school_name, ca.name AS campus_name
FROM ep_sites ep
JOIN schools sc ON sc.id = ep.school_id
JOIN campuses ca ON ca.id = ep.campus_id
WHERE ep.id = $1`
	var site models.EPSite
	if err := r.db.GetContext(ctx, &site, query, id); err != nil {
		return nil, err
	}
	return &site, nil
}

// FindMatriculation returns the matriculation of a student record for a
// period, or nil when the student is not registered in that period.
func (r *CatalogRepository) FindMatriculation(ctx context.Context, studentRecordID, periodID string) (*models.Matriculation, error) {
	const query = `SELECT student_record_id, period_id, cycle FROM matriculations WHERE student_record_id = $1 AND period_id = $2`
	var mat models.Matriculation
	if err := r.db.GetContext(ctx, &mat, query, studentRecordID, periodID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find matriculation: %w", err)
	}
	return &mat, nil
}
