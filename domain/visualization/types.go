package visualization

import (
	"encoding/json"

	"edaworkspace/domain/core"
)

// Type names a chart implementation.
type Type string

const (
	TypeBarplot     Type = "barplot"
	TypeHistogram   Type = "histogram"
	TypeScatterplot Type = "scatterplot"
)

// App is the data-service computation each chart type is served by.
func (t Type) App() string {
	switch t {
	case TypeScatterplot:
		return "xyrelationships"
	default:
		return "pass"
	}
}

// ParseType validates a chart type name.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeBarplot, TypeHistogram, TypeScatterplot:
		return Type(s), nil
	}
	return "", core.ErrUnknownVisualization
}

// ValueSpec selects what the dependent axis shows.
type ValueSpec string

const (
	ValueCount               ValueSpec = "count"
	ValueProportion          ValueSpec = "proportion"
	ValueRaw                 ValueSpec = "raw"
	ValueSmoothedMean        ValueSpec = "smoothedMean"
	ValueSmoothedMeanWithRaw ValueSpec = "smoothedMeanWithRaw"
	ValueBestFitLineWithRaw  ValueSpec = "bestFitLineWithRaw"
)

// VariableDetails names a variable in service payloads; Value carries an overlay/facet category.
type VariableDetails struct {
	EntityID   string `json:"entityId"`
	VariableID string `json:"variableId"`
	Value      string `json:"value,omitempty"`
}

// CompleteCases is the per-variable count of records with data.
type CompleteCases struct {
	VariableDetails VariableDetails `json:"variableDetails"`
	CompleteCases   int             `json:"completeCases"`
}

// ResponseConfig is the coverage block every chart response carries.
type ResponseConfig struct {
	CompleteCasesAllVars  int             `json:"completeCasesAllVars"`
	CompleteCasesAxesVars int             `json:"completeCasesAxesVars"`
	CompleteCasesTable    []CompleteCases `json:"completeCasesTable"`
}

// Series is one labelled sequence of values; nil values are undefined.
type Series struct {
	Name    string     `json:"name"`
	Labels  []string   `json:"label"`
	Values  []*float64 `json:"value"`
	Color   string     `json:"color,omitempty"`
	Missing bool       `json:"missing,omitempty"`
}

// Visualization is one persisted chart inside an analysis.
type Visualization struct {
	ID          string          `json:"visualizationId"`
	Type        Type            `json:"type"`
	DisplayName string          `json:"displayName"`
	Config      json.RawMessage `json:"configuration"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
}

// Float is a convenience for building optional values.
func Float(v float64) *float64 {
	return &v
}
