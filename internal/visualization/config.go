package visualization

import (
	"encoding/json"
	"fmt"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/workspace"
)

// Config is the persisted configuration of one chart; each chart type reads the fields it needs
type Config struct {
	XAxisVariable         *core.VariableKey `json:"xAxisVariable,omitempty"`
	YAxisVariable         *core.VariableKey `json:"yAxisVariable,omitempty"`
	OverlayVariable       *core.VariableKey `json:"overlayVariable,omitempty"`
	ValueSpec             vis.ValueSpec     `json:"valueSpec,omitempty"`
	BinWidth              float64           `json:"binWidth,omitempty"`
	DependentAxisLogScale bool              `json:"dependentAxisLogScale,omitempty"`
	ShowMissingness       bool              `json:"showMissingness,omitempty"`
}

// ParseConfig decodes a stored configuration; an empty document is the zero config
func ParseConfig(raw json.RawMessage) (Config, error) {
	var cfg Config
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Raw encodes the configuration for storage
func (c Config) Raw() json.RawMessage {
	raw, _ := json.Marshal(c)
	return raw
}

// requestConfig is the "config" member of a data-service visualization request
type requestConfig struct {
	OutputEntityID  string            `json:"outputEntityId"`
	XAxisVariable   *core.VariableKey `json:"xAxisVariable"`
	YAxisVariable   *core.VariableKey `json:"yAxisVariable,omitempty"`
	OverlayVariable *core.VariableKey `json:"overlayVariable,omitempty"`
	ValueSpec       vis.ValueSpec     `json:"valueSpec"`
	BinWidth        float64           `json:"binWidth,omitempty"`
	ShowMissingness bool              `json:"showMissingness,omitempty"`
}

func (c Config) request(includeY, includeBins bool) requestConfig {
	rc := requestConfig{
		OutputEntityID:  c.XAxisVariable.EntityID,
		XAxisVariable:   c.XAxisVariable,
		OverlayVariable: c.OverlayVariable,
		ValueSpec:       c.ValueSpec,
		ShowMissingness: c.ShowMissingness && c.OverlayVariable != nil,
	}
	if includeY {
		rc.YAxisVariable = c.YAxisVariable
	}
	if includeBins {
		rc.BinWidth = c.BinWidth
	}
	return rc
}

// resolve looks a configured variable up, naming the role in the error
func resolve(ws *workspace.Workspace, role string, key *core.VariableKey) (*study.StudyVariable, error) {
	if key == nil || key.IsZero() {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingRequiredVariable, role)
	}
	_, v, err := ws.Variable(key.EntityID, key.VariableID)
	if err != nil {
		return nil, err
	}
	if v.IsCategory() {
		return nil, fmt.Errorf("%w: %s %s groups other variables", core.ErrUnsupportedVariable, role, key)
	}
	return v, nil
}

// validateOverlay requires a categorical overlay on the x entity or one of its ancestors
func validateOverlay(ws *workspace.Workspace, cfg Config) (*study.StudyVariable, error) {
	if cfg.OverlayVariable == nil {
		return nil, nil
	}
	v, err := resolve(ws, "overlay variable", cfg.OverlayVariable)
	if err != nil {
		return nil, err
	}
	if !v.IsCategorical() {
		return nil, fmt.Errorf("%w: overlay variable %s has no vocabulary", core.ErrUnsupportedVariable, cfg.OverlayVariable)
	}
	if err := sameOrAncestor(ws, cfg.XAxisVariable.EntityID, cfg.OverlayVariable); err != nil {
		return nil, err
	}
	return v, nil
}

func sameOrAncestor(ws *workspace.Workspace, entityID string, key *core.VariableKey) error {
	if key.EntityID == entityID {
		return nil
	}
	for _, a := range ws.Metadata.Ancestors(entityID) {
		if a.ID == key.EntityID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not on entity %s or one of its ancestors", core.ErrInvalidConfig, key, entityID)
}

func validValueSpec(spec vis.ValueSpec, allowed ...vis.ValueSpec) error {
	for _, a := range allowed {
		if spec == a {
			return nil
		}
	}
	return fmt.Errorf("%w: value spec %q", core.ErrInvalidConfig, spec)
}

// firstVariable finds the first data variable of the study in pre-order satisfying accept
func firstVariable(ws *workspace.Workspace, accept func(study.StudyVariable) bool) *core.VariableKey {
	for _, e := range ws.Metadata.Entities() {
		for _, v := range e.Variables {
			if v.IsCategory() || v.IsHidden() || !accept(v) {
				continue
			}
			return &core.VariableKey{EntityID: e.ID, VariableID: v.ID}
		}
	}
	return nil
}

func axisLabel(v *study.StudyVariable) string {
	if v == nil {
		return ""
	}
	if v.Units != "" {
		return v.DisplayName + " (" + v.Units + ")"
	}
	return v.DisplayName
}
