package filter

import (
	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
)

// Set is an ordered collection of filters combined by conjunction.
// At most one filter exists per (entity, variable) pair.
type Set []Filter

// With returns a new set where f replaces any filter on the same variable.
func (s Set) With(f Filter) Set {
	out := make(Set, 0, len(s)+1)
	replaced := false
	for _, existing := range s {
		if existing.Key() == f.Key() {
			out = append(out, f)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, f)
	}
	return out
}

// Without returns a new set minus the filter on the given variable.
func (s Set) Without(entityID, variableID string) Set {
	out := make(Set, 0, len(s))
	for _, f := range s {
		if f.EntityID == entityID && f.VariableID == variableID {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ForEntity returns only the filters constraining one entity.
func (s Set) ForEntity(entityID string) Set {
	out := make(Set, 0, len(s))
	for _, f := range s {
		if f.EntityID == entityID {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the filter on a variable, if any.
func (s Set) Find(entityID, variableID string) (Filter, bool) {
	for _, f := range s {
		if f.EntityID == entityID && f.VariableID == variableID {
			return f, true
		}
	}
	return Filter{}, false
}

// Validate checks every filter against the study metadata and rejects a second filter on
// the same variable.
func (s Set) Validate(meta *study.StudyMetadata) error {
	seen := make(map[core.VariableKey]struct{}, len(s))
	for _, f := range s {
		if _, dup := seen[f.Key()]; dup {
			return core.NewFilterError(f.EntityID, f.VariableID, "duplicate filter")
		}
		seen[f.Key()] = struct{}{}
		_, v, err := meta.Variable(f.EntityID, f.VariableID)
		if err != nil {
			return err
		}
		if err := f.Validate(v); err != nil {
			return err
		}
	}
	return nil
}

// OrEmpty never returns nil so the wire payload always carries a list.
func (s Set) OrEmpty() Set {
	if s == nil {
		return Set{}
	}
	return s
}
