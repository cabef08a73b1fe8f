package testkit

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/subsetting"
	"edaworkspace/domain/visualization"
)

// Subset returns the rows of an entity that satisfy every filter, following the entity
// hierarchy: ancestor filters apply through the ancestor row, descendant filters require at
// least one passing descendant
func (d *Dataset) Subset(entityID string, filters filter.Set) []Row {
	passing := map[string]map[string]bool{}
	for _, f := range filters {
		if _, ok := passing[f.EntityID]; ok {
			continue
		}
		ids := map[string]bool{}
		for _, r := range d.Rows[f.EntityID] {
			if rowMatches(r, filters.ForEntity(f.EntityID)) {
				ids[r.ID] = true
			}
		}
		passing[f.EntityID] = ids
	}

	var out []Row
	for _, r := range d.Rows[entityID] {
		if d.related(entityID, r, passing) {
			out = append(out, r)
		}
	}
	return out
}

func (d *Dataset) related(entityID string, r Row, passing map[string]map[string]bool) bool {
	for filteredEntity, ids := range passing {
		switch {
		case filteredEntity == entityID:
			if !ids[r.ID] {
				return false
			}
		case r.Ancestors[filteredEntity] != "":
			if !ids[r.Ancestors[filteredEntity]] {
				return false
			}
		default:
			found := false
			for _, other := range d.Rows[filteredEntity] {
				if ids[other.ID] && other.Ancestors[entityID] == r.ID {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func rowMatches(r Row, filters filter.Set) bool {
	for _, f := range filters {
		if !valueMatches(r.Values[f.VariableID], f) {
			return false
		}
	}
	return true
}

func valueMatches(value string, f filter.Filter) bool {
	if value == "" {
		return false
	}
	switch f.Type {
	case filter.TypeStringSet:
		return contains(f.StringSet, value)
	case filter.TypeDateSet:
		for _, d := range f.DateSet {
			if strings.HasPrefix(d, value) || strings.HasPrefix(value, d) {
				return true
			}
		}
		return false
	case filter.TypeNumberSet:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		for _, candidate := range f.NumberSet {
			if candidate == n {
				return true
			}
		}
		return false
	case filter.TypeNumberRange:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || f.Min == nil || f.Max == nil {
			return false
		}
		return n >= f.Min.Number && n <= f.Max.Number
	case filter.TypeDateRange:
		if f.Min == nil || f.Max == nil {
			return false
		}
		return value >= f.Min.Date[:min(10, len(f.Min.Date))] && value <= f.Max.Date[:min(10, len(f.Max.Date))]
	}
	return false
}

// Value resolves a variable for a row, looking through ancestors when the variable lives on one
func (d *Dataset) Value(r Row, key core.VariableKey) string {
	if v, ok := r.Values[key.VariableID]; ok {
		return v
	}
	ancestorID := r.Ancestors[key.EntityID]
	for _, a := range d.Rows[key.EntityID] {
		if a.ID == ancestorID {
			return a.Values[key.VariableID]
		}
	}
	return ""
}

// Distribution counts a variable's values across the subset
func (d *Dataset) Distribution(entityID string, req subsetting.DistributionRequest) (*subsetting.DistributionResponse, error) {
	_, v, err := d.Metadata.Variable(entityID, req.VariableID)
	if err != nil {
		return nil, err
	}
	rows := d.Subset(entityID, req.Filters)

	var values []string
	distinct := map[string]bool{}
	for _, r := range rows {
		if val := r.Values[req.VariableID]; val != "" {
			values = append(values, val)
			distinct[val] = true
		}
	}

	resp := &subsetting.DistributionResponse{
		Statistics: subsetting.DistributionStatistics{
			SubsetSize:               len(rows),
			NumVarValues:             len(values),
			NumDistinctValues:        len(distinct),
			NumDistinctEntityRecords: len(values),
			NumMissingCases:          len(rows) - len(values),
		},
	}

	if v.Type.IsNumeric() {
		nums := parseFloats(values)
		width := 0.0
		if req.BinSpec != nil {
			width = req.BinSpec.Value
		}
		for _, b := range binNumbers(nums, width) {
			resp.Histogram = append(resp.Histogram, subsetting.DistributionBin{
				BinStart: formatFloat(b.start),
				BinEnd:   formatFloat(b.end),
				BinLabel: b.label(),
				Value:    b.count,
			})
		}
	} else {
		counts := map[string]float64{}
		for _, val := range values {
			counts[val]++
		}
		labels := v.Vocabulary
		if len(labels) == 0 {
			labels = sortedKeys(distinct)
		}
		for _, label := range labels {
			resp.Histogram = append(resp.Histogram, subsetting.DistributionBin{
				BinStart: label,
				BinLabel: label,
				Value:    counts[label],
			})
		}
	}

	if req.ValueSpec == visualization.ValueProportion && len(values) > 0 {
		for i := range resp.Histogram {
			resp.Histogram[i].Value /= float64(len(values))
		}
	}
	if resp.Histogram == nil {
		resp.Histogram = []subsetting.DistributionBin{}
	}
	return resp, nil
}

// Tabular returns the subset as a header plus rows
func (d *Dataset) Tabular(entityID string, req subsetting.TabularRequest) (*subsetting.TabularData, error) {
	if _, err := d.Metadata.Entity(entityID); err != nil {
		return nil, err
	}
	for _, id := range req.OutputVariableIDs {
		if _, _, err := d.Metadata.Variable(entityID, id); err != nil {
			return nil, err
		}
	}
	data := &subsetting.TabularData{Header: append([]string{entityID + "_id"}, req.OutputVariableIDs...)}
	for _, r := range d.Subset(entityID, req.Filters) {
		row := []string{r.ID}
		for _, id := range req.OutputVariableIDs {
			row = append(row, r.Values[id])
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

type bin struct {
	start, end, count float64
}

func (b bin) label() string {
	return "[" + formatFloat(b.start) + ", " + formatFloat(b.end) + ")"
}

// binNumbers splits values into equal-width bins; width 0 picks ten bins over the range
func binNumbers(nums []float64, width float64) []bin {
	if len(nums) == 0 {
		return nil
	}
	lo, hi := nums[0], nums[0]
	for _, n := range nums {
		lo = math.Min(lo, n)
		hi = math.Max(hi, n)
	}
	if width <= 0 {
		width = (hi - lo) / 10
		if width == 0 {
			width = 1
		}
		width = roundWidth(width)
	}
	start := math.Floor(lo/width) * width
	count := int(math.Floor((hi-start)/width)) + 1
	bins := make([]bin, count)
	for i := range bins {
		bins[i].start = roundTo(start+float64(i)*width, width)
		bins[i].end = roundTo(start+float64(i+1)*width, width)
	}
	for _, n := range nums {
		idx := int(math.Floor((n - start) / width))
		if idx >= count {
			idx = count - 1
		}
		bins[idx].count++
	}
	return bins
}

func roundWidth(w float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(w)))
	return math.Ceil(w/mag) * mag
}

func roundTo(v, width float64) float64 {
	decimals := math.Max(0, -math.Floor(math.Log10(width))+1)
	p := math.Pow(10, decimals)
	return math.Round(v*p) / p
}

func parseFloats(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
