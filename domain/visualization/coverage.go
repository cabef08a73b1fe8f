package visualization

// VariableCoverage is the number of complete cases for one variable.
type VariableCoverage struct {
	Variable      VariableDetails `json:"variable"`
	CompleteCases int             `json:"completeCases"`
}

// CoverageStatistics summarizes how many filtered records a chart could plot.
type CoverageStatistics struct {
	FilteredCount         int                `json:"filteredCount"`
	CompleteCasesAllVars  int                `json:"completeCasesAllVars"`
	CompleteCasesAxesVars int                `json:"completeCasesAxesVars"`
	IncompleteCases       int                `json:"incompleteCases"`
	Variables             []VariableCoverage `json:"variables"`
}

// Coverage derives coverage statistics from a chart response and the filtered entity count.
func Coverage(cfg ResponseConfig, filteredCount int) CoverageStatistics {
	incomplete := filteredCount - cfg.CompleteCasesAxesVars
	if incomplete < 0 {
		incomplete = 0
	}
	vars := make([]VariableCoverage, len(cfg.CompleteCasesTable))
	for i, row := range cfg.CompleteCasesTable {
		vars[i] = VariableCoverage{Variable: row.VariableDetails, CompleteCases: row.CompleteCases}
	}
	return CoverageStatistics{
		FilteredCount:         filteredCount,
		CompleteCasesAllVars:  cfg.CompleteCasesAllVars,
		CompleteCasesAxesVars: cfg.CompleteCasesAxesVars,
		IncompleteCases:       incomplete,
		Variables:             vars,
	}
}
