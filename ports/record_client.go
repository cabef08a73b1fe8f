package ports

import (
	"context"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
)

// RecordClient resolves a study's display record from the host application
type RecordClient interface {
	GetStudyRecord(ctx context.Context, studyID core.StudyID) (*study.StudyRecord, error)
}
