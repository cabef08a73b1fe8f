package filter

import (
	"encoding/json"
	"fmt"
	"time"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
)

// Type names the shape of a filter's constraint.
type Type string

const (
	TypeStringSet   Type = "stringSet"
	TypeNumberSet   Type = "numberSet"
	TypeDateSet     Type = "dateSet"
	TypeNumberRange Type = "numberRange"
	TypeDateRange   Type = "dateRange"
)

// Filter restricts an entity's records by one variable's value.
type Filter struct {
	EntityID   string    `json:"entityId"`
	VariableID string    `json:"variableId"`
	Type       Type      `json:"type"`
	StringSet  []string  `json:"stringSet,omitempty"`
	NumberSet  []float64 `json:"numberSet,omitempty"`
	DateSet    []string  `json:"dateSet,omitempty"`
	Min        *Bound    `json:"min,omitempty"`
	Max        *Bound    `json:"max,omitempty"`
}

// Bound is a range endpoint; numeric ranges use Number, date ranges use Date.
type Bound struct {
	Number float64
	Date   string
	isDate bool
}

// NumberBound builds a numeric range endpoint.
func NumberBound(n float64) *Bound { return &Bound{Number: n} }

// DateBound builds a date range endpoint (ISO-8601).
func DateBound(d string) *Bound { return &Bound{Date: d, isDate: true} }

// MarshalJSON writes the endpoint as a bare number or string.
func (b Bound) MarshalJSON() ([]byte, error) {
	if b.isDate {
		return json.Marshal(b.Date)
	}
	return json.Marshal(b.Number)
}

// UnmarshalJSON accepts a number or a date string.
func (b *Bound) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = Bound{Number: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("range bound must be a number or date string: %w", err)
	}
	*b = Bound{Date: s, isDate: true}
	return nil
}

// Key returns the (entity, variable) pair the filter is keyed by.
func (f Filter) Key() core.VariableKey {
	return core.VariableKey{EntityID: f.EntityID, VariableID: f.VariableID}
}

// Validate checks the filter against the variable it constrains.
func (f Filter) Validate(v *study.StudyVariable) error {
	if v.IsCategory() {
		return core.NewFilterError(f.EntityID, f.VariableID, "category variables hold no values")
	}
	switch f.Type {
	case TypeStringSet:
		if v.Type != study.TypeString {
			return core.NewFilterError(f.EntityID, f.VariableID, "stringSet requires a string variable")
		}
		if len(f.StringSet) == 0 {
			return core.NewFilterError(f.EntityID, f.VariableID, "empty stringSet")
		}
	case TypeNumberSet:
		if !v.Type.IsNumeric() {
			return core.NewFilterError(f.EntityID, f.VariableID, "numberSet requires a numeric variable")
		}
		if len(f.NumberSet) == 0 {
			return core.NewFilterError(f.EntityID, f.VariableID, "empty numberSet")
		}
	case TypeDateSet:
		if v.Type != study.TypeDate {
			return core.NewFilterError(f.EntityID, f.VariableID, "dateSet requires a date variable")
		}
		if len(f.DateSet) == 0 {
			return core.NewFilterError(f.EntityID, f.VariableID, "empty dateSet")
		}
	case TypeNumberRange:
		if !v.Type.IsNumeric() {
			return core.NewFilterError(f.EntityID, f.VariableID, "numberRange requires a numeric variable")
		}
		if f.Min == nil || f.Max == nil {
			return core.NewFilterError(f.EntityID, f.VariableID, "numberRange needs min and max")
		}
		if f.Min.isDate || f.Max.isDate {
			return core.NewFilterError(f.EntityID, f.VariableID, "numberRange bounds must be numbers")
		}
		if f.Min.Number > f.Max.Number {
			return core.NewFilterError(f.EntityID, f.VariableID, "min exceeds max")
		}
	case TypeDateRange:
		if v.Type != study.TypeDate {
			return core.NewFilterError(f.EntityID, f.VariableID, "dateRange requires a date variable")
		}
		if f.Min == nil || f.Max == nil {
			return core.NewFilterError(f.EntityID, f.VariableID, "dateRange needs min and max")
		}
		if !f.Min.isDate || !f.Max.isDate {
			return core.NewFilterError(f.EntityID, f.VariableID, "dateRange bounds must be date strings")
		}
		minDate, err := time.Parse(time.RFC3339, normalizeDate(f.Min.Date))
		if err != nil {
			return core.NewFilterError(f.EntityID, f.VariableID, "min is not a date")
		}
		maxDate, err := time.Parse(time.RFC3339, normalizeDate(f.Max.Date))
		if err != nil {
			return core.NewFilterError(f.EntityID, f.VariableID, "max is not a date")
		}
		if minDate.After(maxDate) {
			return core.NewFilterError(f.EntityID, f.VariableID, "min exceeds max")
		}
	default:
		return core.NewFilterError(f.EntityID, f.VariableID, fmt.Sprintf("unknown filter type %q", f.Type))
	}
	return nil
}

// normalizeDate accepts a bare yyyy-mm-dd as shorthand for midnight UTC.
func normalizeDate(s string) string {
	if len(s) == len("2006-01-02") {
		return s + "T00:00:00Z"
	}
	return s
}
