package study

import (
	"edaworkspace/domain/core"
)

// VariableType is the declared data type of a study variable.
type VariableType string

const (
	TypeCategory  VariableType = "category"
	TypeString    VariableType = "string"
	TypeNumber    VariableType = "number"
	TypeInteger   VariableType = "integer"
	TypeDate      VariableType = "date"
	TypeLongitude VariableType = "longitude"
)

// IsNumeric reports whether values of this type can sit on a continuous axis
func (t VariableType) IsNumeric() bool {
	return t == TypeNumber || t == TypeInteger || t == TypeLongitude
}

// DataShape describes how a variable's values relate to each other.
type DataShape string

const (
	ShapeCategorical DataShape = "categorical"
	ShapeOrdinal     DataShape = "ordinal"
	ShapeBinary      DataShape = "binary"
	ShapeContinuous  DataShape = "continuous"
)

// DisplayType controls how a variable is presented in navigation.
type DisplayType string

const (
	DisplayDefault     DisplayType = "default"
	DisplayMultifilter DisplayType = "multifilter"
	DisplayHidden      DisplayType = "hidden"
)

// StudyVariable is a measured or derived attribute belonging to one entity.
type StudyVariable struct {
	ID            string       `json:"id"`
	ProviderLabel string       `json:"providerLabel,omitempty"`
	DisplayName   string       `json:"displayName"`
	Description   string       `json:"definition,omitempty"`
	ParentID      string       `json:"parentId,omitempty"`
	Type          VariableType `json:"type"`
	DataShape     DataShape    `json:"dataShape,omitempty"`
	DisplayType   DisplayType  `json:"displayType,omitempty"`
	DisplayOrder  *int         `json:"displayOrder,omitempty"`
	Vocabulary    []string     `json:"vocabulary,omitempty"`
	Units         string       `json:"units,omitempty"`
}

// IsCategory reports whether the variable only groups other variables.
func (v StudyVariable) IsCategory() bool {
	return v.Type == TypeCategory
}

// IsHidden reports whether the variable should be kept out of navigation.
func (v StudyVariable) IsHidden() bool {
	return v.DisplayType == DisplayHidden
}

// IsMulti reports whether the variable is a multi-valued filter group.
func (v StudyVariable) IsMulti() bool {
	return v.DisplayType == DisplayMultifilter
}

// IsCategorical reports whether the variable has a finite vocabulary to plot against.
func (v StudyVariable) IsCategorical() bool {
	return len(v.Vocabulary) > 0 && v.DataShape != ShapeContinuous
}

// StudyEntity is a node in a study's data hierarchy owning a set of variables.
type StudyEntity struct {
	ID                string          `json:"id"`
	DisplayName       string          `json:"displayName"`
	DisplayNamePlural string          `json:"displayNamePlural,omitempty"`
	Description       string          `json:"description,omitempty"`
	Variables         []StudyVariable `json:"variables"`
	Children          []StudyEntity   `json:"children,omitempty"`
}

// StudyMetadata is the root of a study's entity/variable tree.
type StudyMetadata struct {
	ID         string      `json:"id"`
	RootEntity StudyEntity `json:"rootEntity"`

	// Stub is set when the metadata is a placeholder produced after a failed fetch.
	Stub bool `json:"-"`
}

// StudyOverview is one row of the study list.
type StudyOverview struct {
	ID          string `json:"id"`
	DatasetID   string `json:"datasetId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// StudyRecord is the host application's display record for a study.
type StudyRecord struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	Attributes  map[string]string `json:"attributes"`

	// Stub is set when the record is a placeholder produced after a failed fetch.
	Stub bool `json:"-"`
}

const (
	// StubRecordDisplayName is the display name of a record that could not be fetched.
	StubRecordDisplayName = "Fetch failed"
	// StubAttributeValue masks every attribute of a record that could not be fetched.
	StubAttributeValue = "N/A"

	stubEntityID   = "root"
	stubEntityName = "Root"
)

// Attribute returns a named record attribute; stub records answer the placeholder for any name.
func (r *StudyRecord) Attribute(name string) string {
	if r == nil {
		return StubAttributeValue
	}
	if r.Stub {
		return StubAttributeValue
	}
	return r.Attributes[name]
}

// NewStubRecord builds the degraded record used when the record service cannot be reached.
func NewStubRecord(studyID core.StudyID, attributeNames []string) *StudyRecord {
	attrs := make(map[string]string, len(attributeNames))
	for _, name := range attributeNames {
		attrs[name] = StubAttributeValue
	}
	return &StudyRecord{
		ID:          studyID.String(),
		DisplayName: StubRecordDisplayName,
		Attributes:  attrs,
		Stub:        true,
	}
}

// NewStubMetadata builds the single-entity placeholder used when metadata cannot be fetched.
func NewStubMetadata(studyID core.StudyID) *StudyMetadata {
	return &StudyMetadata{
		ID: studyID.String(),
		RootEntity: StudyEntity{
			ID:          stubEntityID,
			DisplayName: stubEntityName,
			Description: "Placeholder entity",
			Variables:   []StudyVariable{},
		},
		Stub: true,
	}
}
