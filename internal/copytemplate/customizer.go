// Package copytemplate decides how records are duplicated when a template
// record is copied. A Customizer adjusts the copy of one table: it can set
// explicit column values and choose which child tables are copied along.
package copytemplate

import (
	"fmt"
	"sort"
	"sync"
)

// ValueToCopy tells the copy engine what to do with one column.
// The zero value is NotSpecified.
type ValueToCopy struct {
	specified bool
	value     any
}

// NotSpecified leaves the column to the engine's default behaviour.
var NotSpecified = ValueToCopy{}

// ExplicitValue sets the column of the copy to v.
func ExplicitValue(v any) ValueToCopy {
	return ValueToCopy{specified: true, value: v}
}

// IsSpecified reports whether an explicit value was given.
func (v ValueToCopy) IsSpecified() bool {
	return v.specified
}

// Value returns the explicit value, or nil when not specified.
func (v ValueToCopy) Value() any {
	return v.value
}

// TableNamePredicate selects child tables.
type TableNamePredicate struct {
	all   bool
	names map[string]struct{}
}

// NoTables selects no table.
func NoTables() TableNamePredicate {
	return TableNamePredicate{}
}

// AllTables selects every table.
func AllTables() TableNamePredicate {
	return TableNamePredicate{all: true}
}

// OnlyTables selects the named tables.
func OnlyTables(names ...string) TableNamePredicate {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return TableNamePredicate{names: set}
}

// Test reports whether the table is selected.
func (p TableNamePredicate) Test(tableName string) bool {
	if p.all {
		return true
	}
	_, ok := p.names[tableName]
	return ok
}

// Customizer adjusts how records of one table are copied.
type Customizer interface {
	TableName() string
	ExtractValueToCopy(columnName string) ValueToCopy
	ChildTableNames() TableNamePredicate
}

// Registry holds at most one customizer per table.
type Registry struct {
	mu          sync.RWMutex
	customizers map[string]Customizer
}

// NewRegistry registers the given customizers.
func NewRegistry(customizers ...Customizer) (*Registry, error) {
	r := &Registry{customizers: make(map[string]Customizer)}
	for _, c := range customizers {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a customizer. A second customizer for the same table is an error.
func (r *Registry) Register(c Customizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.customizers[c.TableName()]; dup {
		return fmt.Errorf("copy template customizer for %s already registered", c.TableName())
	}
	r.customizers[c.TableName()] = c
	return nil
}

// ForTable returns the customizer of a table.
func (r *Registry) ForTable(tableName string) (Customizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customizers[tableName]
	return c, ok
}

// TableNames lists the tables with a customizer, sorted.
func (r *Registry) TableNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.customizers))
	for name := range r.customizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyToRecord copies a record's column values, applying the table's
// customizer. Columns without an explicit value keep the source value.
func (r *Registry) ApplyToRecord(tableName string, source map[string]any) map[string]any {
	copied := make(map[string]any, len(source))
	c, ok := r.ForTable(tableName)

	for column, value := range source {
		if ok {
			if v := c.ExtractValueToCopy(column); v.IsSpecified() {
				value = v.Value()
			}
		}
		copied[column] = value
	}
	return copied
}

// CopiesChildTable reports whether child records of childTable are copied
// along with a record of tableName. Tables without a customizer copy all children.
func (r *Registry) CopiesChildTable(tableName, childTable string) bool {
	c, ok := r.ForTable(tableName)
	if !ok {
		return true
	}
	return c.ChildTableNames().Test(childTable)
}
