// Package export writes filtered entity rows to an Excel workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	"edaworkspace/domain/subsetting"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/workspace"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on worksheet names
const maxSheetName = 31

// Workbook fetches the filtered rows of an entity and writes them as an .xlsx document.
// An empty variable list exports every data variable of the entity.
func Workbook(ctx context.Context, ws *workspace.Workspace, entityID string, variableIDs []string, filters filter.Set, w io.Writer) error {
	entity, err := ws.Entity(entityID)
	if err != nil {
		return errors.Wrap(err, "unknown entity")
	}
	if len(variableIDs) == 0 {
		variableIDs = dataVariables(entity)
	}
	variables := make([]*study.StudyVariable, len(variableIDs))
	for i, id := range variableIDs {
		v, ok := entity.Variable(id)
		if !ok || v.IsCategory() {
			return errors.InvalidInput(fmt.Sprintf("%s is not a data variable of %s", id, entity.DisplayName))
		}
		variables[i] = v
	}

	data, err := ws.Subsetting.Tabular(ctx, ws.StudyID, entityID, subsetting.TabularRequest{
		Filters:           filters,
		OutputVariableIDs: variableIDs,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s rows", entity.DisplayName)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(entity)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, 0, len(variables)+1)
	header = append(header, entity.DisplayName+" ID")
	for _, v := range variables {
		header = append(header, columnName(v))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// the service may order columns differently from the request
	columns := make([]int, len(variables))
	for i, v := range variables {
		columns[i] = indexOf(data.Header, v.ID)
	}

	for r, row := range data.Rows {
		cells := make([]interface{}, 0, len(variables)+1)
		cells = append(cells, cell(row, 0))
		for i, v := range variables {
			cells = append(cells, typed(cell(row, columns[i]), v))
		}
		axis, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if err := styleHeader(f, sheet, len(header)); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename suggests a download name for an entity export
func Filename(studyID string, entity *study.StudyEntity) string {
	return strings.ToLower(studyID + "_" + strings.ReplaceAll(pluralName(entity), " ", "_") + ".xlsx")
}

func dataVariables(e *study.StudyEntity) []string {
	var ids []string
	for _, v := range e.Variables {
		if !v.IsCategory() && !v.IsHidden() {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func columnName(v *study.StudyVariable) string {
	if v.Units != "" {
		return v.DisplayName + " (" + v.Units + ")"
	}
	return v.DisplayName
}

// typed stores numeric variables as numbers; anything unparsable stays text
func typed(value string, v *study.StudyVariable) interface{} {
	if value == "" {
		return nil
	}
	if v.Type.IsNumeric() {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	}
	return value
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(columns, 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func sheetName(e *study.StudyEntity) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, pluralName(e))
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

func pluralName(e *study.StudyEntity) string {
	if e.DisplayNamePlural != "" {
		return e.DisplayNamePlural
	}
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.ID
}

func indexOf(header []string, id string) int {
	for i, h := range header {
		if h == id {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
