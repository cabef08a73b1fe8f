package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	"edaworkspace/domain/subsetting"
	"edaworkspace/internal/errors"
	"edaworkspace/ports"
)

const subsettingService = "subsetting"

// SubsettingClient talks to the subsetting service
type SubsettingClient struct {
	t *transport
}

var _ ports.SubsettingClient = (*SubsettingClient)(nil)

// NewSubsettingClient creates a client rooted at the subsetting service base URL
func NewSubsettingClient(baseURL string, opts Options) *SubsettingClient {
	return &SubsettingClient{t: newTransport(subsettingService, baseURL, opts)}
}

// ListStudies returns every study the service knows about
func (c *SubsettingClient) ListStudies(ctx context.Context) ([]study.StudyOverview, error) {
	var resp struct {
		Studies []study.StudyOverview `json:"studies"`
	}
	if err := c.t.getJSON(ctx, "/studies", &resp, "studies"); err != nil {
		return nil, err
	}
	return resp.Studies, nil
}

// GetStudyMetadata returns the study's entity tree as served, unsorted
func (c *SubsettingClient) GetStudyMetadata(ctx context.Context, studyID core.StudyID) (*study.StudyMetadata, error) {
	var resp struct {
		Study study.StudyMetadata `json:"study"`
	}
	err := c.t.getJSON(ctx, "/studies/"+escape(studyID.String()), &resp, "study.id", "study.rootEntity.id")
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, errors.Wrap(fmt.Errorf("%w: %s", core.ErrStudyNotFound, studyID), "study not found")
		}
		return nil, err
	}
	return &resp.Study, nil
}

// EntityCount returns how many records of an entity pass the filters
func (c *SubsettingClient) EntityCount(ctx context.Context, studyID core.StudyID, entityID string, filters filter.Set) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	req := subsetting.CountRequest{Filters: filters.OrEmpty()}
	if err := c.t.postJSON(ctx, entityPath(studyID, entityID, "count"), req, &resp, "count"); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Distribution returns one variable's value distribution under the filters
func (c *SubsettingClient) Distribution(ctx context.Context, studyID core.StudyID, entityID string, req subsetting.DistributionRequest) (*subsetting.DistributionResponse, error) {
	req.Filters = req.Filters.OrEmpty()
	var resp subsetting.DistributionResponse
	if err := c.t.postJSON(ctx, entityPath(studyID, entityID, "distribution"), req, &resp, "histogram", "statistics"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tabular fetches raw rows of an entity; the service answers with tab-separated text
func (c *SubsettingClient) Tabular(ctx context.Context, studyID core.StudyID, entityID string, req subsetting.TabularRequest) (*subsetting.TabularData, error) {
	req.Filters = req.Filters.OrEmpty()
	body, err := c.t.send(ctx, http.MethodPost, entityPath(studyID, entityID, "tabular"), req)
	if err != nil {
		return nil, err
	}
	data, err := ParseTabular(bytes.NewReader(body))
	if err != nil {
		return nil, errors.ExternalServiceError(subsettingService, err)
	}
	return data, nil
}

// ParseTabular reads a tab-separated table whose first line is the header
func ParseTabular(r io.Reader) (*subsetting.TabularData, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: tabular: %v", core.ErrSchemaMismatch, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: tabular response has no header", core.ErrSchemaMismatch)
	}
	return &subsetting.TabularData{Header: records[0], Rows: records[1:]}, nil
}

func entityPath(studyID core.StudyID, entityID, action string) string {
	return "/studies/" + escape(studyID.String()) + "/entities/" + escape(entityID) + "/" + action
}
