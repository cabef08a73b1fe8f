package analysis

import (
	"fmt"
	"strings"
	"time"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/visualization"
)

// Analysis is a persisted bundle of filters and visualization configurations for one study.
type Analysis struct {
	ID             core.AnalysisID               `json:"analysisId"`
	StudyID        core.StudyID                  `json:"studyId"`
	Name           string                        `json:"displayName"`
	Description    string                        `json:"description,omitempty"`
	Filters        filter.Set                    `json:"filters"`
	Visualizations []visualization.Visualization `json:"visualizations"`
	Created        time.Time                     `json:"creationTime"`
	Modified       time.Time                     `json:"modificationTime"`
}

// Summary is the list view of an analysis.
type Summary struct {
	ID                core.AnalysisID `json:"analysisId"`
	StudyID           core.StudyID    `json:"studyId"`
	Name              string          `json:"displayName"`
	NumFilters        int             `json:"numFilters"`
	NumVisualizations int             `json:"numVisualizations"`
	Modified          time.Time       `json:"modificationTime"`
	Thumbnail         string          `json:"thumbnail,omitempty"`
}

// New creates an unsaved analysis with a fresh ID.
func New(studyID core.StudyID, name string) *Analysis {
	now := time.Now().UTC()
	if strings.TrimSpace(name) == "" {
		name = "Unnamed Analysis"
	}
	return &Analysis{
		ID:             core.NewAnalysisID(),
		StudyID:        studyID,
		Name:           name,
		Filters:        filter.Set{},
		Visualizations: []visualization.Visualization{},
		Created:        now,
		Modified:       now,
	}
}

// Summarize builds the list view of the analysis.
func (a *Analysis) Summarize() Summary {
	return Summary{
		ID:                a.ID,
		StudyID:           a.StudyID,
		Name:              a.Name,
		NumFilters:        len(a.Filters),
		NumVisualizations: len(a.Visualizations),
		Modified:          a.Modified,
		Thumbnail:         a.Thumbnail(),
	}
}

// Thumbnail returns the first chart thumbnail, if any chart has one.
func (a *Analysis) Thumbnail() string {
	for _, v := range a.Visualizations {
		if v.Thumbnail != "" {
			return v.Thumbnail
		}
	}
	return ""
}

// Visualization finds a chart by ID.
func (a *Analysis) Visualization(id string) (*visualization.Visualization, error) {
	for i := range a.Visualizations {
		if a.Visualizations[i].ID == id {
			return &a.Visualizations[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrVisualizationNotFound, id)
}

// PutVisualization inserts or replaces a chart, assigning an ID to new ones.
func (a *Analysis) PutVisualization(v visualization.Visualization) visualization.Visualization {
	if v.ID == "" {
		v.ID = core.NewID().String()
	}
	for i := range a.Visualizations {
		if a.Visualizations[i].ID == v.ID {
			a.Visualizations[i] = v
			a.Touch()
			return v
		}
	}
	a.Visualizations = append(a.Visualizations, v)
	a.Touch()
	return v
}

// RemoveVisualization deletes a chart by ID.
func (a *Analysis) RemoveVisualization(id string) error {
	for i := range a.Visualizations {
		if a.Visualizations[i].ID == id {
			a.Visualizations = append(a.Visualizations[:i], a.Visualizations[i+1:]...)
			a.Touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", core.ErrVisualizationNotFound, id)
}

// Touch bumps the modification time.
func (a *Analysis) Touch() {
	a.Modified = time.Now().UTC()
}
