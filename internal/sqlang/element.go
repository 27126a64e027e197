// Package sqlang models the SQL DDL elements the toolkit extracts and the
// tree-sitter extraction that produces them. The element set is closed: every
// element is exactly one of the six variants below, and adaptation rules may
// replace or drop elements but never change which variants exist.
package sqlang

import "slices"

// ElementType identifies the DDL construct an element declares.
type ElementType string

const (
	TypeTable     ElementType = "table"
	TypeView      ElementType = "view"
	TypeFunction  ElementType = "function"
	TypeProcedure ElementType = "procedure"
	TypeTrigger   ElementType = "trigger"
	TypeIndex     ElementType = "index"
)

// AllTypes returns the element types in declaration order.
func AllTypes() []ElementType {
	return []ElementType{TypeTable, TypeView, TypeFunction, TypeProcedure, TypeTrigger, TypeIndex}
}

// Element is the closed set of extracted SQL elements.
type Element interface {
	Type() ElementType
	Base() *ElementBase
	// Clone returns a deep copy. Adaptation rules transform copies so the
	// extractor's output is never mutated in place.
	Clone() Element

	sqlElement()
}

// ElementBase holds the fields common to every element. Lines are 1-based
// and RawText is the verbatim source slice of the declaring statement.
type ElementBase struct {
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	RawText   string `json:"raw_text"`
}

// Table is a CREATE TABLE statement.
type Table struct {
	ElementBase
	Columns []string `json:"columns,omitempty"`
}

func (t *Table) Type() ElementType  { return TypeTable }
func (t *Table) Base() *ElementBase { return &t.ElementBase }
func (t *Table) Clone() Element {
	c := *t
	c.Columns = slices.Clone(t.Columns)
	return &c
}
func (*Table) sqlElement() {}

// View is a CREATE [MATERIALIZED] VIEW statement.
type View struct {
	ElementBase
}

func (v *View) Type() ElementType  { return TypeView }
func (v *View) Base() *ElementBase { return &v.ElementBase }
func (v *View) Clone() Element {
	c := *v
	return &c
}
func (*View) sqlElement() {}

// Function is a CREATE FUNCTION statement.
type Function struct {
	ElementBase
	Parameters []string `json:"parameters,omitempty"`
}

func (f *Function) Type() ElementType  { return TypeFunction }
func (f *Function) Base() *ElementBase { return &f.ElementBase }
func (f *Function) Clone() Element {
	c := *f
	c.Parameters = slices.Clone(f.Parameters)
	return &c
}
func (*Function) sqlElement() {}

// Procedure is a CREATE PROCEDURE statement.
type Procedure struct {
	ElementBase
	Parameters []string `json:"parameters,omitempty"`
}

func (p *Procedure) Type() ElementType  { return TypeProcedure }
func (p *Procedure) Base() *ElementBase { return &p.ElementBase }
func (p *Procedure) Clone() Element {
	c := *p
	c.Parameters = slices.Clone(p.Parameters)
	return &c
}
func (*Procedure) sqlElement() {}

// Trigger is a CREATE TRIGGER statement. TableName, Timing and Event are
// derived from the statement text and may be empty when underivable, but the
// fields are always present on the variant.
type Trigger struct {
	ElementBase
	TableName string `json:"table_name"`
	Timing    string `json:"trigger_timing"`
	Event     string `json:"trigger_event"`
}

func (t *Trigger) Type() ElementType  { return TypeTrigger }
func (t *Trigger) Base() *ElementBase { return &t.ElementBase }
func (t *Trigger) Clone() Element {
	c := *t
	return &c
}
func (*Trigger) sqlElement() {}

// Index is a CREATE [UNIQUE] INDEX statement.
type Index struct {
	ElementBase
	TableName string `json:"table_name"`
	Unique    bool   `json:"unique"`
}

func (i *Index) Type() ElementType  { return TypeIndex }
func (i *Index) Base() *ElementBase { return &i.ElementBase }
func (i *Index) Clone() Element {
	c := *i
	return &c
}
func (*Index) sqlElement() {}

// AttributeNames returns the serialized attribute names of an element's
// concrete variant, in declaration order. Behavior profiles store these so
// platform differences in element shape show up as profile diffs.
func AttributeNames(el Element) []string {
	names := []string{"name", "start_line", "end_line", "raw_text"}
	switch el.(type) {
	case *Table:
		names = append(names, "columns")
	case *Function, *Procedure:
		names = append(names, "parameters")
	case *Trigger:
		names = append(names, "table_name", "trigger_timing", "trigger_event")
	case *Index:
		names = append(names, "table_name", "unique")
	}
	return names
}

// CloneAll deep-copies a slice of elements. A nil slice clones to an empty,
// non-nil slice.
func CloneAll(els []Element) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, el.Clone())
	}
	return out
}
