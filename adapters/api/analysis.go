package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/internal/errors"
	"edaworkspace/ports"
)

const userService = "user"

// AnalysisClient persists analyses in the user service under one user's namespace
type AnalysisClient struct {
	t      *transport
	userID string
}

var _ ports.AnalysisStore = (*AnalysisClient)(nil)

func NewAnalysisClient(baseURL, userID string, opts Options) *AnalysisClient {
	return &AnalysisClient{t: newTransport(userService, baseURL, opts), userID: userID}
}

func (c *AnalysisClient) root() string {
	return "/users/" + escape(c.userID) + "/analyses"
}

func (c *AnalysisClient) item(id core.AnalysisID) string {
	return c.root() + "/" + escape(id.String())
}

// List returns the user's analyses of one study, most recently modified first
func (c *AnalysisClient) List(ctx context.Context, studyID core.StudyID) ([]analysis.Summary, error) {
	var all []analysis.Summary
	if err := c.t.getJSON(ctx, c.root(), &all); err != nil {
		return nil, err
	}
	out := make([]analysis.Summary, 0, len(all))
	for _, s := range all {
		if s.StudyID == studyID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	return out, nil
}

func (c *AnalysisClient) Get(ctx context.Context, id core.AnalysisID) (*analysis.Analysis, error) {
	var a analysis.Analysis
	if err := c.t.getJSON(ctx, c.item(id), &a, "analysisId", "studyId"); err != nil {
		if core.IsNotFoundError(err) {
			return nil, errors.Wrap(fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id), "analysis not found")
		}
		return nil, err
	}
	return &a, nil
}

func (c *AnalysisClient) Create(ctx context.Context, a *analysis.Analysis) error {
	_, err := c.t.send(ctx, http.MethodPost, c.root(), a)
	return err
}

func (c *AnalysisClient) Update(ctx context.Context, a *analysis.Analysis) error {
	_, err := c.t.send(ctx, http.MethodPut, c.item(a.ID), a)
	if core.IsNotFoundError(err) {
		return errors.Wrap(fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, a.ID), "analysis not found")
	}
	return err
}

func (c *AnalysisClient) Delete(ctx context.Context, id core.AnalysisID) error {
	_, err := c.t.send(ctx, http.MethodDelete, c.item(id), nil)
	if core.IsNotFoundError(err) {
		return errors.Wrap(fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id), "analysis not found")
	}
	return err
}
