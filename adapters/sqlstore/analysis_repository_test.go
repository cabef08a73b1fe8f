package sqlstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/visualization"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))
	return db
}

func sampleAnalysis(studyID core.StudyID, name string) *analysis.Analysis {
	a := analysis.New(studyID, name)
	a.Filters = a.Filters.With(filter.Filter{
		EntityID: "participant", VariableID: "age", Type: filter.TypeNumberRange,
		Min: filter.NumberBound(18), Max: filter.NumberBound(65),
	})
	a.PutVisualization(visualization.Visualization{
		Type:        visualization.TypeHistogram,
		DisplayName: "Age",
		Config:      json.RawMessage(`{"binWidth":5}`),
		Thumbnail:   "<svg></svg>",
	})
	return a
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := setupDB(t)
	runner := migration.NewRunner()
	require.NoError(t, runner.Run(context.Background(), db))

	applied, err := runner.Applied(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.0.1", "1.1.0"}, applied)
	assert.Equal(t, "1.1.0", runner.Version())
}

func TestAnalysisRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewAnalysisRepository(setupDB(t), "alice")

	a := sampleAnalysis("DS_demo", "Adults")
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Filters, got.Filters)
	require.Len(t, got.Visualizations, 1)
	assert.JSONEq(t, `{"binWidth":5}`, string(got.Visualizations[0].Config))
	assert.True(t, a.Created.Equal(got.Created))

	got.Name = "Working-age adults"
	got.Touch()
	require.NoError(t, repo.Update(ctx, got))

	reloaded, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Working-age adults", reloaded.Name)

	require.NoError(t, repo.Delete(ctx, a.ID))
	_, err = repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, core.ErrAnalysisNotFound)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestAnalysisRepositoryListOrderAndScope(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	alice := NewAnalysisRepository(db, "alice")
	bob := NewAnalysisRepository(db, "bob")

	older := sampleAnalysis("DS_demo", "Older")
	older.Modified = time.Now().Add(-time.Hour).UTC()
	newer := sampleAnalysis("DS_demo", "Newer")
	otherStudy := sampleAnalysis("DS_other", "Other study")

	require.NoError(t, alice.Create(ctx, older))
	require.NoError(t, alice.Create(ctx, newer))
	require.NoError(t, alice.Create(ctx, otherStudy))
	require.NoError(t, bob.Create(ctx, sampleAnalysis("DS_demo", "Bob's")))

	list, err := alice.List(ctx, "DS_demo")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Name)
	assert.Equal(t, "Older", list[1].Name)
	assert.Equal(t, 1, list[0].NumFilters)
	assert.Equal(t, "<svg></svg>", list[0].Thumbnail)

	_, err = bob.Get(ctx, newer.ID)
	assert.ErrorIs(t, err, core.ErrAnalysisNotFound)
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewAnalysisRepository(setupDB(t), "alice")

	ghost := sampleAnalysis("DS_demo", "Ghost")
	assert.ErrorIs(t, repo.Update(ctx, ghost), core.ErrAnalysisNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ghost.ID), core.ErrAnalysisNotFound)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
