package api

import (
	"context"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
	"edaworkspace/ports"
)

const recordService = "record"

// RecordClient fetches study display records from the host application
type RecordClient struct {
	t *transport
}

var _ ports.RecordClient = (*RecordClient)(nil)

func NewRecordClient(baseURL string, opts Options) *RecordClient {
	return &RecordClient{t: newTransport(recordService, baseURL, opts)}
}

// GetStudyRecord returns the record for a study
func (c *RecordClient) GetStudyRecord(ctx context.Context, studyID core.StudyID) (*study.StudyRecord, error) {
	var record study.StudyRecord
	if err := c.t.getJSON(ctx, "/records/"+escape(studyID.String()), &record, "id", "displayName"); err != nil {
		return nil, err
	}
	if record.Attributes == nil {
		record.Attributes = map[string]string{}
	}
	return &record, nil
}
