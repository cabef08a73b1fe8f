package study

import (
	"fmt"
	"sort"

	"edaworkspace/domain/core"
)

// CompareVariables orders variables by display order when present, otherwise by display name.
// A variable with a display order sorts before one without.
func CompareVariables(a, b StudyVariable) int {
	switch {
	case a.DisplayOrder != nil && b.DisplayOrder != nil:
		return *a.DisplayOrder - *b.DisplayOrder
	case a.DisplayOrder != nil:
		return -1
	case b.DisplayOrder != nil:
		return 1
	}
	switch {
	case a.DisplayName < b.DisplayName:
		return -1
	case a.DisplayName > b.DisplayName:
		return 1
	}
	return 0
}

// SortedCopy returns a deep copy of the metadata with every entity's variables sorted.
// The receiver is left untouched so cached metadata can be shared safely.
func (m *StudyMetadata) SortedCopy() *StudyMetadata {
	if m == nil {
		return nil
	}
	return &StudyMetadata{
		ID:         m.ID,
		RootEntity: sortEntity(m.RootEntity),
		Stub:       m.Stub,
	}
}

func sortEntity(e StudyEntity) StudyEntity {
	out := e
	out.Variables = make([]StudyVariable, len(e.Variables))
	for i, v := range e.Variables {
		out.Variables[i] = copyVariable(v)
	}
	sort.SliceStable(out.Variables, func(i, j int) bool {
		return CompareVariables(out.Variables[i], out.Variables[j]) < 0
	})

	if e.Children != nil {
		out.Children = make([]StudyEntity, len(e.Children))
		for i, child := range e.Children {
			out.Children[i] = sortEntity(child)
		}
	}
	return out
}

func copyVariable(v StudyVariable) StudyVariable {
	out := v
	if v.DisplayOrder != nil {
		order := *v.DisplayOrder
		out.DisplayOrder = &order
	}
	if v.Vocabulary != nil {
		out.Vocabulary = append([]string(nil), v.Vocabulary...)
	}
	return out
}

// Flatten lists the entity tree in pre-order: an entity, then each child subtree in order.
func Flatten(root StudyEntity) []StudyEntity {
	var out []StudyEntity
	var walk func(e StudyEntity)
	walk = func(e StudyEntity) {
		out = append(out, e)
		for _, child := range e.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

// Entities lists every entity of the study in pre-order.
func (m *StudyMetadata) Entities() []StudyEntity {
	if m == nil {
		return nil
	}
	return Flatten(m.RootEntity)
}

// Entity finds an entity by ID anywhere in the tree.
func (m *StudyMetadata) Entity(entityID string) (*StudyEntity, error) {
	for _, e := range m.Entities() {
		if e.ID == entityID {
			found := e
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrEntityNotFound, entityID)
}

// Variable finds a variable by its owning entity and ID.
func (m *StudyMetadata) Variable(entityID, variableID string) (*StudyEntity, *StudyVariable, error) {
	entity, err := m.Entity(entityID)
	if err != nil {
		return nil, nil, err
	}
	v, ok := entity.Variable(variableID)
	if !ok {
		return nil, nil, core.NewVariableNotFoundError(entityID, variableID)
	}
	return entity, v, nil
}

// Variable looks up a variable owned by this entity.
func (e *StudyEntity) Variable(variableID string) (*StudyVariable, bool) {
	for i := range e.Variables {
		if e.Variables[i].ID == variableID {
			return &e.Variables[i], true
		}
	}
	return nil, false
}

// FirstDataVariable returns the first variable that holds data and is shown in navigation.
func (e *StudyEntity) FirstDataVariable() (*StudyVariable, bool) {
	for i := range e.Variables {
		v := &e.Variables[i]
		if !v.IsCategory() && !v.IsHidden() {
			return v, true
		}
	}
	return nil, false
}

// Ancestors returns the chain of entities from the root down to, but excluding, entityID.
func (m *StudyMetadata) Ancestors(entityID string) []StudyEntity {
	var path []StudyEntity
	var walk func(e StudyEntity) bool
	walk = func(e StudyEntity) bool {
		if e.ID == entityID {
			return true
		}
		path = append(path, e)
		for _, child := range e.Children {
			if walk(child) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if walk(m.RootEntity) {
		return path
	}
	return nil
}
