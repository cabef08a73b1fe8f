package testkit

import (
	"testing"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/subsetting"
	"edaworkspace/domain/visualization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demo(t *testing.T) *Dataset {
	t.Helper()
	return NewDemoGenerator(DefaultDemoConfig()).Generate()
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := demo(t)
	b := demo(t)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Len(t, a.Rows["household"], DefaultDemoConfig().Households)
	assert.NotEmpty(t, a.Rows["participant"])
	assert.NotEmpty(t, a.Rows["observation"])
}

func TestSubsetFollowsHierarchy(t *testing.T) {
	ds := demo(t)
	female := filter.Set{{EntityID: "participant", VariableID: "sex", Type: filter.TypeStringSet, StringSet: []string{"Female"}}}

	participants := ds.Subset("participant", female)
	for _, p := range participants {
		assert.Equal(t, "Female", p.Values["sex"])
	}

	// households with at least one matching participant
	households := ds.Subset("household", female)
	withFemale := map[string]bool{}
	for _, p := range participants {
		withFemale[p.Ancestors["household"]] = true
	}
	assert.Len(t, households, len(withFemale))

	// observations inherit the participant constraint
	for _, o := range ds.Subset("observation", female) {
		assert.True(t, containsRow(participants, o.Ancestors["participant"]))
	}
}

func TestSubsetNumberRange(t *testing.T) {
	ds := demo(t)
	adults := filter.Set{{EntityID: "participant", VariableID: "age", Type: filter.TypeNumberRange, Min: filter.NumberBound(18), Max: filter.NumberBound(200)}}
	for _, p := range ds.Subset("participant", adults) {
		assert.NotEmpty(t, p.Values["age"])
	}
	assert.Less(t, len(ds.Subset("participant", adults)), len(ds.Rows["participant"]))
}

func TestDistributionCategorical(t *testing.T) {
	ds := demo(t)
	resp, err := ds.Distribution("household", subsetting.DistributionRequest{VariableID: "region", ValueSpec: visualization.ValueCount})
	require.NoError(t, err)

	require.Len(t, resp.Histogram, 4)
	assert.Equal(t, "North", resp.Histogram[0].BinLabel)
	total := 0.0
	for _, b := range resp.Histogram {
		total += b.Value
	}
	assert.Equal(t, float64(resp.Statistics.NumVarValues), total)
	assert.Equal(t, len(ds.Rows["household"]), resp.Statistics.SubsetSize)
}

func TestDistributionUnknownVariable(t *testing.T) {
	_, err := demo(t).Distribution("household", subsetting.DistributionRequest{VariableID: "nope"})
	assert.ErrorIs(t, err, core.ErrVariableNotFound)
}

func TestBarplotServesOverlayOutOfOrder(t *testing.T) {
	ds := demo(t)
	resp, err := ds.Barplot(nil, ChartConfig{
		XAxisVariable:   &core.VariableKey{EntityID: "household", VariableID: "region"},
		OverlayVariable: &core.VariableKey{EntityID: "household", VariableID: "water_source"},
		ValueSpec:       visualization.ValueCount,
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "Well", resp.Data[0].OverlayVariableDetails.Value)
	assert.Equal(t, "Piped", resp.Data[2].OverlayVariableDetails.Value)
}

func TestBinNumbers(t *testing.T) {
	bins := binNumbers([]float64{0, 4, 5, 9.5}, 5)
	require.Len(t, bins, 2)
	assert.Equal(t, 2.0, bins[0].count)
	assert.Equal(t, 2.0, bins[1].count)
	assert.Equal(t, "[0, 5)", bins[0].label())
}

func containsRow(rows []Row, id string) bool {
	for _, r := range rows {
		if r.ID == id {
			return true
		}
	}
	return false
}
