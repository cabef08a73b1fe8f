package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	StudyID    ID
	EntityID   ID
	VariableID ID
	AnalysisID ID
)

// String conversions for domain IDs
func (id StudyID) String() string    { return ID(id).String() }
func (id EntityID) String() string   { return ID(id).String() }
func (id VariableID) String() string { return ID(id).String() }
func (id AnalysisID) String() string { return ID(id).String() }

// NewAnalysisID returns a fresh time-ordered analysis identifier
func NewAnalysisID() AnalysisID {
	return AnalysisID(NewID())
}

// ParseStudyID parses a string into StudyID
func ParseStudyID(s string) (StudyID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("study ID cannot be empty")
	}
	return StudyID(s), nil
}

// ParseAnalysisID parses a string into AnalysisID
func ParseAnalysisID(s string) (AnalysisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("analysis ID cannot be empty")
	}
	return AnalysisID(s), nil
}

// VariableKey qualifies a variable by its owning entity.
type VariableKey struct {
	EntityID   string `json:"entityId"`
	VariableID string `json:"variableId"`
}

// String renders the composite key as entityId/variableId.
func (k VariableKey) String() string {
	return k.EntityID + "/" + k.VariableID
}

// IsZero reports whether neither part is set
func (k VariableKey) IsZero() bool {
	return k.EntityID == "" && k.VariableID == ""
}

// ParseVariableKey parses "entityId/variableId".
func ParseVariableKey(s string) (VariableKey, error) {
	entityID, variableID, ok := strings.Cut(s, "/")
	if !ok || strings.TrimSpace(entityID) == "" || strings.TrimSpace(variableID) == "" {
		return VariableKey{}, fmt.Errorf("variable key %q must be entityId/variableId", s)
	}
	return VariableKey{EntityID: entityID, VariableID: variableID}, nil
}
