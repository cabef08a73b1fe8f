// Package fieldtree turns a study's entity tree into the navigable variable tree and its search.
package fieldtree

import (
	"strings"

	"edaworkspace/domain/study"
)

// RootTerm is the term of the synthetic node every tree hangs from
const RootTerm = "root"

// Field is one node of the variable tree: an entity, a category or a variable
type Field struct {
	Term          string             `json:"term"`
	Parent        string             `json:"parent,omitempty"`
	DisplayName   string             `json:"display"`
	Description   string             `json:"description,omitempty"`
	ProviderLabel string             `json:"providerLabel,omitempty"`
	EntityID      string             `json:"entityId"`
	VariableID    string             `json:"variableId,omitempty"`
	Type          study.VariableType `json:"type,omitempty"`
	DataShape     study.DataShape    `json:"dataShape,omitempty"`
	IsEntity      bool               `json:"isEntity,omitempty"`
	IsMulti       bool               `json:"isMulti,omitempty"`
	Disabled      bool               `json:"disabled,omitempty"`
}

// IsSelectable reports whether the field names a variable with data
func (f Field) IsSelectable() bool {
	return !f.IsEntity && f.Type != study.TypeCategory && !f.Disabled
}

// Constraint limits which variables an input widget accepts
type Constraint struct {
	Types  []study.VariableType
	Shapes []study.DataShape
}

// Allows reports whether a variable satisfies every non-empty constraint list
func (c *Constraint) Allows(v study.StudyVariable) bool {
	if c == nil {
		return true
	}
	if len(c.Types) > 0 && !containsType(c.Types, v.Type) {
		return false
	}
	if len(c.Shapes) > 0 && !containsShape(c.Shapes, v.DataShape) {
		return false
	}
	return true
}

// Options tunes field construction
type Options struct {
	// Constraint marks non-conforming data variables as disabled
	Constraint *Constraint
}

// VariableTerm is the term of a variable field
func VariableTerm(entityID, variableID string) string {
	return entityID + "/" + variableID
}

// FromEntities emits one field per entity and one per non-hidden variable, entities in the
// order given and variables in each entity's order
func FromEntities(entities []study.StudyEntity, opts Options) []Field {
	var fields []Field
	for _, e := range entities {
		fields = append(fields, Field{
			Term:        e.ID,
			DisplayName: e.DisplayName,
			Description: e.Description,
			EntityID:    e.ID,
			IsEntity:    true,
		})

		visible := make(map[string]bool, len(e.Variables))
		for _, v := range e.Variables {
			if !v.IsHidden() {
				visible[v.ID] = true
			}
		}

		for _, v := range e.Variables {
			if v.IsHidden() {
				continue
			}
			parent := e.ID
			if v.ParentID != "" && visible[v.ParentID] {
				parent = VariableTerm(e.ID, v.ParentID)
			}
			f := Field{
				Term:          VariableTerm(e.ID, v.ID),
				Parent:        parent,
				DisplayName:   v.DisplayName,
				Description:   v.Description,
				ProviderLabel: v.ProviderLabel,
				EntityID:      e.ID,
				VariableID:    v.ID,
				Type:          v.Type,
				DataShape:     v.DataShape,
				IsMulti:       v.IsMulti(),
			}
			if !v.IsCategory() && !opts.Constraint.Allows(v) {
				f.Disabled = true
			}
			fields = append(fields, f)
		}
	}
	return fields
}

// Node is a field with its navigable children
type Node struct {
	Field    Field   `json:"field"`
	Children []*Node `json:"children"`

	// descendants of a multi field: not navigable, still searched
	multi []*Node
}

// Build links fields by parent term under a synthetic root; fields whose parent is unknown
// hang from the root
func Build(fields []Field) *Node {
	root := &Node{Field: Field{Term: RootTerm, DisplayName: "Root"}, Children: []*Node{}}
	nodes := make(map[string]*Node, len(fields))
	for _, f := range fields {
		nodes[f.Term] = &Node{Field: f, Children: []*Node{}}
	}

	for _, f := range fields {
		n := nodes[f.Term]
		parent, ok := nodes[f.Parent]
		if !ok {
			parent = root
		}
		parent.Children = append(parent.Children, n)
	}

	suppressMulti(root)
	return root
}

// suppressMulti moves the subtree of every multi field out of navigation
func suppressMulti(n *Node) {
	for _, child := range n.Children {
		if child.Field.IsMulti {
			child.multi = child.Children
			child.Children = []*Node{}
			continue
		}
		suppressMulti(child)
	}
}

// BuildForStudy is FromEntities over the pre-order flattening of metadata followed by Build,
// nesting entity nodes under their parent entity
func BuildForStudy(meta *study.StudyMetadata, opts Options) *Node {
	fields := FromEntities(meta.Entities(), opts)
	parents := entityParents(meta.RootEntity, "")
	for i := range fields {
		if fields[i].IsEntity {
			fields[i].Parent = parents[fields[i].Term]
		}
	}
	return Build(fields)
}

func entityParents(e study.StudyEntity, parent string) map[string]string {
	out := map[string]string{e.ID: parent}
	for _, c := range e.Children {
		for k, v := range entityParents(c, e.ID) {
			out[k] = v
		}
	}
	return out
}

// SearchString is the text a query is matched against: the field's own strings plus, for
// multi fields, those of every descendant
func SearchString(n *Node) string {
	parts := []string{fieldText(n.Field)}
	if n.Field.IsMulti {
		walk(n.multi, func(d *Node) {
			parts = append(parts, fieldText(d.Field))
		})
	}
	return strings.Join(parts, " ")
}

func fieldText(f Field) string {
	return strings.Join([]string{f.DisplayName, f.Description, f.ProviderLabel}, " ")
}

func walk(nodes []*Node, visit func(*Node)) {
	for _, n := range nodes {
		visit(n)
		walk(n.Children, visit)
		walk(n.multi, visit)
	}
}

// Matches reports whether every whitespace-separated term of query occurs in the node's
// search string, ignoring case; an empty query matches everything
func Matches(n *Node, query string) bool {
	haystack := strings.ToLower(SearchString(n))
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// Prune returns a copy of the tree keeping matching nodes and their ancestors. A matching
// node keeps its whole subtree.
func Prune(tree *Node, query string) *Node {
	if strings.TrimSpace(query) == "" {
		return tree
	}
	out := &Node{Field: tree.Field, Children: []*Node{}}
	for _, child := range tree.Children {
		if kept := prune(child, query); kept != nil {
			out.Children = append(out.Children, kept)
		}
	}
	return out
}

func prune(n *Node, query string) *Node {
	if Matches(n, query) {
		return n
	}
	var kept []*Node
	for _, child := range n.Children {
		if k := prune(child, query); k != nil {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &Node{Field: n.Field, Children: kept, multi: n.multi}
}

// Leaves returns the selectable variable fields in pre-order, including those under multi fields
func Leaves(tree *Node) []Field {
	var out []Field
	walk(tree.Children, func(n *Node) {
		if n.Field.IsSelectable() {
			out = append(out, n.Field)
		}
	})
	return out
}

// Find returns the node with a term
func Find(tree *Node, term string) *Node {
	if tree.Field.Term == term {
		return tree
	}
	for _, c := range tree.Children {
		if found := Find(c, term); found != nil {
			return found
		}
	}
	return nil
}

func containsType(list []study.VariableType, t study.VariableType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsShape(list []study.DataShape, s study.DataShape) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
