package copytemplate

import "time"

const (
	// WorkflowTableName is the table of workflow definitions.
	WorkflowTableName = "AD_Workflow"

	// WorkflowColumnName is the workflow's name column.
	WorkflowColumnName = "Name"

	// Go layout of yyyyMMdd:HH:mm:ss.
	workflowNameTimeLayout = "20060102:15:04:05"
)

// WorkflowCustomizer gives copied workflows a unique, time-stamped name and
// copies no child records.
type WorkflowCustomizer struct {
	now func() time.Time
}

// NewWorkflowCustomizer uses now as its clock; nil means time.Now.
func NewWorkflowCustomizer(now func() time.Time) *WorkflowCustomizer {
	if now == nil {
		now = time.Now
	}
	return &WorkflowCustomizer{now: now}
}

// TableName implements Customizer.
func (c *WorkflowCustomizer) TableName() string {
	return WorkflowTableName
}

// ExtractValueToCopy implements Customizer.
func (c *WorkflowCustomizer) ExtractValueToCopy(columnName string) ValueToCopy {
	if columnName == WorkflowColumnName {
		return ExplicitValue(c.uniqueName())
	}
	return NotSpecified
}

// ChildTableNames implements Customizer.
func (c *WorkflowCustomizer) ChildTableNames() TableNamePredicate {
	return NoTables()
}

// uniqueName is the column name, not the source value, followed by the time.
func (c *WorkflowCustomizer) uniqueName() string {
	return WorkflowColumnName + "_" + c.now().Format(workflowNameTimeLayout)
}

// DefaultRegistry holds the customizers of this package, all sharing the
// clock now (nil means time.Now). A copy engine looks customizers up here.
func DefaultRegistry(now func() time.Time) *Registry {
	r := &Registry{customizers: make(map[string]Customizer)}
	for _, c := range []Customizer{NewWorkflowCustomizer(now)} {
		r.customizers[c.TableName()] = c
	}
	return r
}
