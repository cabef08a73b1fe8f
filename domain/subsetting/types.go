package subsetting

import (
	"edaworkspace/domain/filter"
	"edaworkspace/domain/visualization"
)

// CountRequest asks for the number of records of an entity passing the filters.
type CountRequest struct {
	Filters filter.Set `json:"filters"`
}

// DistributionRequest asks for one variable's value distribution under the filters.
type DistributionRequest struct {
	Filters    filter.Set              `json:"filters"`
	VariableID string                  `json:"variableId"`
	ValueSpec  visualization.ValueSpec `json:"valueSpec"`
	BinSpec    *BinSpec                `json:"binSpec,omitempty"`
}

// BinSpec overrides the service's default binning of continuous variables.
type BinSpec struct {
	Type  string  `json:"type"`
	Value float64 `json:"value,omitempty"`
	Units string  `json:"units,omitempty"`
}

// DistributionBin is one bar of a distribution.
type DistributionBin struct {
	BinStart string  `json:"binStart"`
	BinEnd   string  `json:"binEnd,omitempty"`
	BinLabel string  `json:"binLabel"`
	Value    float64 `json:"value"`
}

// DistributionStatistics describes the subset the distribution was computed over.
type DistributionStatistics struct {
	SubsetSize               int `json:"subsetSize"`
	NumVarValues             int `json:"numVarValues"`
	NumDistinctValues        int `json:"numDistinctValues"`
	NumDistinctEntityRecords int `json:"numDistinctEntityRecords"`
	NumMissingCases          int `json:"numMissingCases"`
}

// DistributionResponse is the subsetting service's distribution payload.
type DistributionResponse struct {
	Histogram  []DistributionBin      `json:"histogram"`
	Statistics DistributionStatistics `json:"statistics"`
}

// TabularRequest asks for raw rows of an entity.
type TabularRequest struct {
	Filters           filter.Set `json:"filters"`
	OutputVariableIDs []string   `json:"outputVariableIds"`
}

// TabularData is a header row plus data rows, all as text.
type TabularData struct {
	Header []string
	Rows   [][]string
}
