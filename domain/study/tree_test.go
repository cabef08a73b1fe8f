package study

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(n int) *int { return &n }

func sampleMetadata() *StudyMetadata {
	return &StudyMetadata{
		ID: "DS_demo",
		RootEntity: StudyEntity{
			ID:          "household",
			DisplayName: "Household",
			Variables: []StudyVariable{
				{ID: "h_roof", DisplayName: "Roof material", Type: TypeString},
				{ID: "h_size", DisplayName: "Household size", Type: TypeInteger, DisplayOrder: order(2)},
				{ID: "h_country", DisplayName: "Country", Type: TypeString},
				{ID: "h_id", DisplayName: "Household ID", Type: TypeString, DisplayOrder: order(1)},
			},
			Children: []StudyEntity{
				{
					ID:          "participant",
					DisplayName: "Participant",
					Variables: []StudyVariable{
						{ID: "p_sex", DisplayName: "Sex", Type: TypeString},
						{ID: "p_age", DisplayName: "Age", Type: TypeNumber},
					},
					Children: []StudyEntity{
						{ID: "observation", DisplayName: "Observation"},
					},
				},
				{ID: "sample", DisplayName: "Sample"},
			},
		},
	}
}

func variableIDs(vars []StudyVariable) []string {
	ids := make([]string, len(vars))
	for i, v := range vars {
		ids[i] = v.ID
	}
	return ids
}

func TestSortedCopyOrdersVariables(t *testing.T) {
	meta := sampleMetadata()
	sorted := meta.SortedCopy()

	assert.Equal(t, []string{"h_id", "h_size", "h_country", "h_roof"}, variableIDs(sorted.RootEntity.Variables))
	assert.Equal(t, []string{"p_age", "p_sex"}, variableIDs(sorted.RootEntity.Children[0].Variables))
}

func TestSortedCopyLeavesSourceUntouched(t *testing.T) {
	meta := sampleMetadata()
	before := variableIDs(meta.RootEntity.Variables)

	sorted := meta.SortedCopy()
	*sorted.RootEntity.Variables[0].DisplayOrder = 99
	sorted.RootEntity.Children[0].Variables[0].DisplayName = "changed"

	assert.Equal(t, before, variableIDs(meta.RootEntity.Variables))
	assert.Equal(t, 1, *meta.RootEntity.Variables[3].DisplayOrder)
	assert.Equal(t, "Sex", meta.RootEntity.Children[0].Variables[0].DisplayName)
}

func TestCompareVariablesProperties(t *testing.T) {
	vars := []StudyVariable{
		{ID: "a", DisplayName: "Zeta", DisplayOrder: order(3)},
		{ID: "b", DisplayName: "alpha"},
		{ID: "c", DisplayName: "Beta"},
		{ID: "d", DisplayName: "Alpha", DisplayOrder: order(1)},
		{ID: "e", DisplayName: "Gamma", DisplayOrder: order(3)},
		{ID: "f", DisplayName: "Beta"},
	}
	sort.SliceStable(vars, func(i, j int) bool { return CompareVariables(vars[i], vars[j]) < 0 })

	for i := 0; i < len(vars); i++ {
		for j := i + 1; j < len(vars); j++ {
			a, b := vars[i], vars[j]
			switch {
			case a.DisplayOrder != nil && b.DisplayOrder != nil:
				assert.LessOrEqual(t, *a.DisplayOrder, *b.DisplayOrder, "%s before %s", a.ID, b.ID)
			case a.DisplayOrder == nil && b.DisplayOrder != nil:
				t.Errorf("%s without order sorted before %s with order", a.ID, b.ID)
			case a.DisplayOrder == nil && b.DisplayOrder == nil:
				assert.LessOrEqual(t, a.DisplayName, b.DisplayName)
			}
		}
	}
	// equal keys keep their input order
	assert.Equal(t, []string{"d", "a", "e", "c", "f", "b"}, variableIDs(vars))
}

func TestFlattenIsPreOrder(t *testing.T) {
	entities := Flatten(sampleMetadata().RootEntity)

	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"household", "participant", "observation", "sample"}, ids)
}

func TestLookups(t *testing.T) {
	meta := sampleMetadata()

	entity, v, err := meta.Variable("participant", "p_age")
	require.NoError(t, err)
	assert.Equal(t, "Participant", entity.DisplayName)
	assert.Equal(t, "Age", v.DisplayName)

	_, _, err = meta.Variable("participant", "nope")
	assert.Error(t, err)

	_, err = meta.Entity("nope")
	assert.Error(t, err)

	ancestors := meta.Ancestors("observation")
	require.Len(t, ancestors, 2)
	assert.Equal(t, "household", ancestors[0].ID)
	assert.Equal(t, "participant", ancestors[1].ID)
}

func TestStubRecordMasksAttributes(t *testing.T) {
	record := NewStubRecord("DS_x", []string{"summary", "project_id"})

	assert.True(t, record.Stub)
	assert.Equal(t, StubRecordDisplayName, record.DisplayName)
	assert.Equal(t, StubAttributeValue, record.Attributes["summary"])
	assert.Equal(t, StubAttributeValue, record.Attribute("anything-else"))
}
