package ports

import (
	"context"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	"edaworkspace/domain/subsetting"
)

// SubsettingClient reads study metadata and filtered summaries from the subsetting service
type SubsettingClient interface {
	ListStudies(ctx context.Context) ([]study.StudyOverview, error)
	GetStudyMetadata(ctx context.Context, studyID core.StudyID) (*study.StudyMetadata, error)
	EntityCount(ctx context.Context, studyID core.StudyID, entityID string, filters filter.Set) (int, error)
	Distribution(ctx context.Context, studyID core.StudyID, entityID string, req subsetting.DistributionRequest) (*subsetting.DistributionResponse, error)
	Tabular(ctx context.Context, studyID core.StudyID, entityID string, req subsetting.TabularRequest) (*subsetting.TabularData, error)
}
