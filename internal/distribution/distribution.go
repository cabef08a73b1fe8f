// Package distribution fetches the value distribution shown on a variable page.
package distribution

import (
	"context"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	"edaworkspace/domain/subsetting"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/workspace"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result pairs the unfiltered distribution with the filtered one
type Result struct {
	Entity     *study.StudyEntity
	Variable   *study.StudyVariable
	Background *subsetting.DistributionResponse
	Foreground *subsetting.DistributionResponse
	// Filters are the filters the foreground was computed under
	Filters filter.Set
}

// SubsetSize is the number of entity records passing the other filters
func (r *Result) SubsetSize() int {
	return r.Foreground.Statistics.SubsetSize
}

// TotalSize is the number of entity records in the study
func (r *Result) TotalSize() int {
	return r.Background.Statistics.SubsetSize
}

// Coverage is the share of the study's records left by the filters
func (r *Result) Coverage() float64 {
	if r.TotalSize() == 0 {
		return 0
	}
	return float64(r.SubsetSize()) / float64(r.TotalSize())
}

// Service fetches distributions through the workspace's subsetting client
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger.Named("distribution")}
}

// Fetch requests the background and foreground distributions of one variable in parallel.
// The foreground ignores any filter on the variable itself so the page shows what that
// filter would select from. Both must succeed.
func (s *Service) Fetch(ctx context.Context, ws *workspace.Workspace, entityID, variableID string, filters filter.Set) (*Result, error) {
	entity, variable, err := ws.Variable(entityID, variableID)
	if err != nil {
		return nil, errors.Wrap(err, "unknown variable")
	}
	if variable.IsCategory() {
		return nil, errors.Wrapf(core.ErrUnsupportedVariable, "%s/%s has no values", entityID, variableID)
	}

	result := &Result{
		Entity:   entity,
		Variable: variable,
		Filters:  filters.Without(entityID, variableID),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := ws.Subsetting.Distribution(gctx, ws.StudyID, entityID, request(variableID, filter.Set{}))
		result.Background = resp
		return err
	})
	g.Go(func() error {
		resp, err := ws.Subsetting.Distribution(gctx, ws.StudyID, entityID, request(variableID, result.Filters))
		result.Foreground = resp
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("distribution failed",
			zap.String("study_id", ws.StudyID.String()),
			zap.String("variable", core.VariableKey{EntityID: entityID, VariableID: variableID}.String()),
			zap.Error(err))
		return nil, errors.Wrapf(err, "failed to load distribution of %s", variable.DisplayName)
	}
	return result, nil
}

func request(variableID string, filters filter.Set) subsetting.DistributionRequest {
	return subsetting.DistributionRequest{
		Filters:    filters.OrEmpty(),
		VariableID: variableID,
		ValueSpec:  vis.ValueCount,
	}
}
