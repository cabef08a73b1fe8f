package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/visualization"
	"edaworkspace/internal/errors"
	"edaworkspace/ports"

	"github.com/jmoiron/sqlx"
)

// timeLayout is fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// analysisRow mirrors the analyses table
type analysisRow struct {
	ID             string `db:"id"`
	UserID         string `db:"user_id"`
	StudyID        string `db:"study_id"`
	DisplayName    string `db:"display_name"`
	Description    string `db:"description"`
	Filters        string `db:"filters"`
	Visualizations string `db:"visualizations"`
	Thumbnail      string `db:"thumbnail"`
	CreatedAt      string `db:"created_at"`
	ModifiedAt     string `db:"modified_at"`
}

// analysisRepository implements ports.AnalysisStore over Postgres or SQLite
type analysisRepository struct {
	db     *sqlx.DB
	userID string
}

// NewAnalysisRepository creates a store scoped to one user's analyses
func NewAnalysisRepository(db *sqlx.DB, userID string) ports.AnalysisStore {
	return &analysisRepository{db: db, userID: userID}
}

// List returns the user's analyses for a study, most recently modified first
func (r *analysisRepository) List(ctx context.Context, studyID core.StudyID) ([]analysis.Summary, error) {
	query := r.db.Rebind(`SELECT
		id, user_id, study_id, display_name, description, filters, visualizations, thumbnail, created_at, modified_at
	FROM analyses
	WHERE user_id = ? AND study_id = ?
	ORDER BY modified_at DESC`)

	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, query, r.userID, studyID.String()); err != nil {
		return nil, errors.DatabaseError("failed to list analyses", err)
	}

	summaries := make([]analysis.Summary, 0, len(rows))
	for _, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		s := a.Summarize()
		s.Thumbnail = row.Thumbnail
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Get retrieves an analysis by its ID
func (r *analysisRepository) Get(ctx context.Context, id core.AnalysisID) (*analysis.Analysis, error) {
	query := r.db.Rebind(`SELECT
		id, user_id, study_id, display_name, description, filters, visualizations, thumbnail, created_at, modified_at
	FROM analyses WHERE id = ? AND user_id = ?`)

	var row analysisRow
	if err := r.db.GetContext(ctx, &row, query, id.String(), r.userID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id), "analysis not found")
		}
		return nil, errors.DatabaseError("failed to get analysis", err)
	}
	return row.toDomain()
}

// Create inserts a new analysis
func (r *analysisRepository) Create(ctx context.Context, a *analysis.Analysis) error {
	row, err := r.fromDomain(a)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, `INSERT INTO analyses (
		id, user_id, study_id, display_name, description, filters, visualizations, thumbnail, created_at, modified_at
	) VALUES (
		:id, :user_id, :study_id, :display_name, :description, :filters, :visualizations, :thumbnail, :created_at, :modified_at
	)`, row)
	if err != nil {
		return errors.DatabaseError("failed to create analysis", err)
	}
	return nil
}

// Update replaces the stored analysis
func (r *analysisRepository) Update(ctx context.Context, a *analysis.Analysis) error {
	row, err := r.fromDomain(a)
	if err != nil {
		return err
	}
	result, err := r.db.NamedExecContext(ctx, `UPDATE analyses SET
		study_id = :study_id,
		display_name = :display_name,
		description = :description,
		filters = :filters,
		visualizations = :visualizations,
		thumbnail = :thumbnail,
		modified_at = :modified_at
	WHERE id = :id AND user_id = :user_id`, row)
	if err != nil {
		return errors.DatabaseError("failed to update analysis", err)
	}
	return r.expectOne(result, a.ID)
}

// Delete removes an analysis
func (r *analysisRepository) Delete(ctx context.Context, id core.AnalysisID) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM analyses WHERE id = ? AND user_id = ?`), id.String(), r.userID)
	if err != nil {
		return errors.DatabaseError("failed to delete analysis", err)
	}
	return r.expectOne(result, id)
}

func (r *analysisRepository) expectOne(result sql.Result, id core.AnalysisID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to read affected rows", err)
	}
	if n == 0 {
		return errors.Wrap(fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id), "analysis not found")
	}
	return nil
}

func (r *analysisRepository) fromDomain(a *analysis.Analysis) (*analysisRow, error) {
	filtersJSON, err := json.Marshal(a.Filters.OrEmpty())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal filters")
	}
	visualizations := a.Visualizations
	if visualizations == nil {
		visualizations = []visualization.Visualization{}
	}
	visualizationsJSON, err := json.Marshal(visualizations)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal visualizations")
	}
	return &analysisRow{
		ID:             a.ID.String(),
		UserID:         r.userID,
		StudyID:        a.StudyID.String(),
		DisplayName:    a.Name,
		Description:    a.Description,
		Filters:        string(filtersJSON),
		Visualizations: string(visualizationsJSON),
		Thumbnail:      a.Thumbnail(),
		CreatedAt:      a.Created.UTC().Format(timeLayout),
		ModifiedAt:     a.Modified.UTC().Format(timeLayout),
	}, nil
}

func (row analysisRow) toDomain() (*analysis.Analysis, error) {
	a := &analysis.Analysis{
		ID:          core.AnalysisID(row.ID),
		StudyID:     core.StudyID(row.StudyID),
		Name:        row.DisplayName,
		Description: row.Description,
	}

	var filters filter.Set
	if err := json.Unmarshal([]byte(row.Filters), &filters); err != nil {
		return nil, errors.DatabaseError("failed to unmarshal filters", err)
	}
	a.Filters = filters.OrEmpty()

	if err := json.Unmarshal([]byte(row.Visualizations), &a.Visualizations); err != nil {
		return nil, errors.DatabaseError("failed to unmarshal visualizations", err)
	}
	if a.Visualizations == nil {
		a.Visualizations = []visualization.Visualization{}
	}

	var err error
	if a.Created, err = time.Parse(timeLayout, row.CreatedAt); err != nil {
		return nil, errors.DatabaseError("failed to parse created_at", err)
	}
	if a.Modified, err = time.Parse(timeLayout, row.ModifiedAt); err != nil {
		return nil, errors.DatabaseError("failed to parse modified_at", err)
	}
	return a, nil
}
