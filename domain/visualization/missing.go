package visualization

// NoDataLabel names the bucket holding records without a value for the overlay variable.
const NoDataLabel = "No data"

// MissingDataColor is the fill used for the no-data bucket.
const MissingDataColor = "#a6a6a6"

// Palette is the categorical colour cycle used for ordinary series.
var Palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// MarkMissingBucket colours every series from the palette and, when showMissingness is set,
// flags the last series as the no-data bucket. Values are never changed.
func MarkMissingBucket(series []Series, showMissingness bool) []Series {
	out := make([]Series, len(series))
	copy(out, series)
	for i := range out {
		out[i].Color = Palette[i%len(Palette)]
		out[i].Missing = false
	}
	if showMissingness && len(out) > 0 {
		last := len(out) - 1
		out[last].Missing = true
		out[last].Color = MissingDataColor
		if out[last].Name == "" {
			out[last].Name = NoDataLabel
		}
	}
	return out
}

// WithNoData appends the no-data entry to an overlay vocabulary when missingness is shown.
func WithNoData(vocabulary []string, showMissingness bool) []string {
	if !showMissingness || len(vocabulary) == 0 {
		return vocabulary
	}
	out := make([]string, 0, len(vocabulary)+1)
	out = append(out, vocabulary...)
	return append(out, NoDataLabel)
}
