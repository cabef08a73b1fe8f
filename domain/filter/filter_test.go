package filter

import (
	"encoding/json"
	"testing"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata() *study.StudyMetadata {
	return &study.StudyMetadata{
		ID: "DS_demo",
		RootEntity: study.StudyEntity{
			ID: "household",
			Variables: []study.StudyVariable{
				{ID: "country", Type: study.TypeString},
				{ID: "size", Type: study.TypeInteger},
				{ID: "visit", Type: study.TypeDate},
				{ID: "demographics", Type: study.TypeCategory},
			},
		},
	}
}

func TestSetWithReplacesSameKey(t *testing.T) {
	s := Set{
		{EntityID: "household", VariableID: "country", Type: TypeStringSet, StringSet: []string{"Kenya"}},
		{EntityID: "household", VariableID: "size", Type: TypeNumberRange, Min: NumberBound(1), Max: NumberBound(3)},
	}

	updated := s.With(Filter{EntityID: "household", VariableID: "country", Type: TypeStringSet, StringSet: []string{"Mali"}})

	require.Len(t, updated, 2)
	assert.Equal(t, []string{"Mali"}, updated[0].StringSet)
	assert.Equal(t, []string{"Kenya"}, s[0].StringSet, "original set must not change")

	added := s.With(Filter{EntityID: "participant", VariableID: "age", Type: TypeNumberSet, NumberSet: []float64{4}})
	assert.Len(t, added, 3)
}

func TestSetWithoutAndForEntity(t *testing.T) {
	s := Set{
		{EntityID: "household", VariableID: "country"},
		{EntityID: "participant", VariableID: "age"},
		{EntityID: "household", VariableID: "size"},
	}

	assert.Len(t, s.Without("household", "country"), 2)
	assert.Len(t, s.ForEntity("household"), 2)

	_, ok := s.Find("participant", "age")
	assert.True(t, ok)
	_, ok = s.Find("participant", "sex")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	meta := testMetadata()
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"string set", Filter{EntityID: "household", VariableID: "country", Type: TypeStringSet, StringSet: []string{"Kenya"}}, false},
		{"empty string set", Filter{EntityID: "household", VariableID: "country", Type: TypeStringSet}, true},
		{"string set on number", Filter{EntityID: "household", VariableID: "size", Type: TypeStringSet, StringSet: []string{"1"}}, true},
		{"number range", Filter{EntityID: "household", VariableID: "size", Type: TypeNumberRange, Min: NumberBound(1), Max: NumberBound(4)}, false},
		{"inverted range", Filter{EntityID: "household", VariableID: "size", Type: TypeNumberRange, Min: NumberBound(5), Max: NumberBound(4)}, true},
		{"date range", Filter{EntityID: "household", VariableID: "visit", Type: TypeDateRange, Min: DateBound("2020-01-01"), Max: DateBound("2021-01-01T00:00:00Z")}, false},
		{"bad date", Filter{EntityID: "household", VariableID: "visit", Type: TypeDateRange, Min: DateBound("soon"), Max: DateBound("2021-01-01")}, true},
		{"category", Filter{EntityID: "household", VariableID: "demographics", Type: TypeStringSet, StringSet: []string{"x"}}, true},
		{"unknown variable", Filter{EntityID: "household", VariableID: "nope", Type: TypeStringSet, StringSet: []string{"x"}}, true},
		{"number range with date bounds", Filter{EntityID: "household", VariableID: "size", Type: TypeNumberRange, Min: DateBound("2020-01-01"), Max: NumberBound(4)}, true},
		{"date range with number bounds", Filter{EntityID: "household", VariableID: "visit", Type: TypeDateRange, Min: NumberBound(0), Max: DateBound("2021-01-01")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Set{tt.filter}.Validate(meta)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateErrorsAreClassified(t *testing.T) {
	err := Set{{EntityID: "household", VariableID: "size", Type: "fuzzy"}}.Validate(testMetadata())
	assert.True(t, core.IsValidationError(err))

	err = Set{{EntityID: "household", VariableID: "nope", Type: TypeStringSet}}.Validate(testMetadata())
	assert.True(t, core.IsNotFoundError(err))
}

func TestValidateRejectsDuplicateVariable(t *testing.T) {
	s := Set{
		{EntityID: "household", VariableID: "country", Type: TypeStringSet, StringSet: []string{"Kenya"}},
		{EntityID: "household", VariableID: "size", Type: TypeNumberSet, NumberSet: []float64{2}},
		{EntityID: "household", VariableID: "country", Type: TypeStringSet, StringSet: []string{"Mali"}},
	}

	err := s.Validate(testMetadata())
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.Contains(t, err.Error(), "duplicate filter")

	assert.NoError(t, s[:2].Validate(testMetadata()))
}

func TestValidateRejectsMismatchedBoundKinds(t *testing.T) {
	var numeric Filter
	require.NoError(t, json.Unmarshal([]byte(`{"entityId":"household","variableId":"size","type":"numberRange","min":"2020-01-01","max":4}`), &numeric))
	err := Set{numeric}.Validate(testMetadata())
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	var dated Filter
	require.NoError(t, json.Unmarshal([]byte(`{"entityId":"household","variableId":"visit","type":"dateRange","min":20200101,"max":"2021-01-01"}`), &dated))
	err = Set{dated}.Validate(testMetadata())
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	var ok Filter
	require.NoError(t, json.Unmarshal([]byte(`{"entityId":"household","variableId":"size","type":"numberRange","min":1,"max":4}`), &ok))
	assert.NoError(t, Set{ok}.Validate(testMetadata()))
}

func TestFilterWireShape(t *testing.T) {
	f := Filter{EntityID: "household", VariableID: "size", Type: TypeNumberRange, Min: NumberBound(1), Max: NumberBound(2.5)}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"entityId":"household","variableId":"size","type":"numberRange","min":1,"max":2.5}`, string(data))

	var decoded Filter
	require.NoError(t, json.Unmarshal([]byte(`{"entityId":"h","variableId":"visit","type":"dateRange","min":"2020-01-01","max":"2020-02-01"}`), &decoded))
	assert.Equal(t, "2020-01-01", decoded.Min.Date)
	assert.Equal(t, "2020-02-01", decoded.Max.Date)
}
