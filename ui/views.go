package ui

import (
	"strings"

	"edaworkspace/domain/study"
	"edaworkspace/internal/distribution"
	"edaworkspace/internal/fieldtree"
	"edaworkspace/internal/workspace"
)

// Heading is the title block of a workspace page
type Heading struct {
	Title      string
	Subtitle   string
	Attributes []Attribute
	StudyPath  string
}

// Attribute is one labelled study record value
type Attribute struct {
	Label string
	Value string
}

// TreeItem is one rendered row of the variable tree
type TreeItem struct {
	Display     string
	Description string
	Type        study.VariableType
	Link        string
	IsEntity    bool
	Disabled    bool
	Selected    bool
	Open        bool
	Children    []TreeItem
}

// DistributionBar is one bin of a variable page histogram; widths are percent of the largest bin
type DistributionBar struct {
	Label           string
	Background      float64
	Foreground      float64
	BackgroundWidth float64
	ForegroundWidth float64
}

func newHeading(ws *workspace.Workspace, attributeNames []string) Heading {
	h := Heading{
		Title:     ws.Record.DisplayName,
		StudyPath: ws.StudyPath(),
	}
	if h.Title == "" {
		h.Title = ws.StudyID.String()
	}
	if ws.Available() {
		h.Subtitle = ws.Root().DisplayNamePlural
	}
	for _, name := range attributeNames {
		if name == "summary" {
			continue
		}
		h.Attributes = append(h.Attributes, Attribute{Label: attributeLabel(name), Value: ws.Record.Attribute(name)})
	}
	return h
}

// attributeLabel turns study_design into Study design
func attributeLabel(name string) string {
	label := strings.ReplaceAll(name, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// treeItems renders a field tree, linking variables to their pages and opening the
// branches that lead to the selected term
func treeItems(ws *workspace.Workspace, nodes []*fieldtree.Node, selected string, openAll bool) []TreeItem {
	items := make([]TreeItem, 0, len(nodes))
	for _, n := range nodes {
		f := n.Field
		item := TreeItem{
			Display:     f.DisplayName,
			Description: f.Description,
			Type:        f.Type,
			IsEntity:    f.IsEntity,
			Disabled:    f.Disabled,
			Selected:    f.Term == selected,
			Children:    treeItems(ws, n.Children, selected, openAll),
		}
		switch {
		case f.IsEntity:
			item.Link = ws.MakeVariableLink(f.EntityID, "")
		case f.IsSelectable():
			item.Link = ws.MakeVariableLink(f.EntityID, f.VariableID)
		}
		item.Open = openAll || item.Selected || anyOpen(item.Children)
		items = append(items, item)
	}
	return items
}

func anyOpen(items []TreeItem) bool {
	for _, i := range items {
		if i.Open || i.Selected {
			return true
		}
	}
	return false
}

func distributionBars(r *distribution.Result) []DistributionBar {
	foreground := make(map[string]float64, len(r.Foreground.Histogram))
	for _, b := range r.Foreground.Histogram {
		foreground[b.BinLabel] = b.Value
	}
	largest := 0.0
	for _, b := range r.Background.Histogram {
		largest = max(largest, b.Value)
	}

	bars := make([]DistributionBar, 0, len(r.Background.Histogram))
	for _, b := range r.Background.Histogram {
		bar := DistributionBar{Label: b.BinLabel, Background: b.Value, Foreground: foreground[b.BinLabel]}
		if largest > 0 {
			bar.BackgroundWidth = b.Value / largest * 100
			bar.ForegroundWidth = bar.Foreground / largest * 100
		}
		bars = append(bars, bar)
	}
	return bars
}
