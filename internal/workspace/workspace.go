package workspace

import (
	"net/url"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
	"edaworkspace/internal/fieldtree"
	"edaworkspace/ports"
)

// Workspace is everything a request inside one study needs, passed explicitly
type Workspace struct {
	StudyID    core.StudyID
	Record     *study.StudyRecord
	Metadata   *study.StudyMetadata
	Subsetting ports.SubsettingClient
	Data       ports.DataClient
	Analyses   ports.AnalysisStore
}

// Available reports whether real metadata was loaded; a stub means the study cannot be explored
func (w *Workspace) Available() bool {
	return w.Metadata != nil && !w.Metadata.Stub
}

// Root is the study's root entity
func (w *Workspace) Root() *study.StudyEntity {
	return &w.Metadata.RootEntity
}

// Entity finds an entity of the study
func (w *Workspace) Entity(entityID string) (*study.StudyEntity, error) {
	return w.Metadata.Entity(entityID)
}

// Variable finds a variable and its owning entity
func (w *Workspace) Variable(entityID, variableID string) (*study.StudyEntity, *study.StudyVariable, error) {
	return w.Metadata.Variable(entityID, variableID)
}

// FieldTree builds the study's variable tree
func (w *Workspace) FieldTree(opts fieldtree.Options) *fieldtree.Node {
	return fieldtree.BuildForStudy(w.Metadata, opts)
}

// StudyPath is the workspace landing page of the study
func (w *Workspace) StudyPath() string {
	return "/workspace/" + url.PathEscape(w.StudyID.String())
}

// MakeVariableLink resolves a possibly partial variable reference to a variable page.
// An empty entity means the root entity. An empty variable means the entity's first data
// variable, falling back to the first data variable of the study in pre-order, in which case
// the link points at that variable's entity.
func (w *Workspace) MakeVariableLink(entityID, variableID string) string {
	if entityID == "" {
		entityID = w.Metadata.RootEntity.ID
	}
	if variableID == "" {
		entityID, variableID = w.defaultVariable(entityID)
	}

	link := w.StudyPath() + "/variables/" + url.PathEscape(entityID)
	if variableID != "" {
		link += "/" + url.PathEscape(variableID)
	}
	return link
}

func (w *Workspace) defaultVariable(entityID string) (string, string) {
	if entity, err := w.Entity(entityID); err == nil {
		if v, ok := entity.FirstDataVariable(); ok {
			return entityID, v.ID
		}
	}
	for _, e := range w.Metadata.Entities() {
		if v, ok := e.FirstDataVariable(); ok {
			return e.ID, v.ID
		}
	}
	return entityID, ""
}
