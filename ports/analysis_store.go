package ports

import (
	"context"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
)

// AnalysisStore defines the interface for analysis persistence
type AnalysisStore interface {
	// List returns summaries of the user's analyses for a study, newest first
	List(ctx context.Context, studyID core.StudyID) ([]analysis.Summary, error)

	// Get loads one analysis; core.ErrAnalysisNotFound when absent
	Get(ctx context.Context, id core.AnalysisID) (*analysis.Analysis, error)

	Create(ctx context.Context, a *analysis.Analysis) error
	Update(ctx context.Context, a *analysis.Analysis) error
	Delete(ctx context.Context, id core.AnalysisID) error
}
