package copytemplate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 2, 29, 7, 5, 9, 0, time.UTC)
}

func TestWorkflowCustomizer(t *testing.T) {
	c := NewWorkflowCustomizer(fixedClock)

	assert.Equal(t, "AD_Workflow", c.TableName())

	name := c.ExtractValueToCopy("Name")
	require.True(t, name.IsSpecified())
	assert.Equal(t, "Name_20240229:07:05:09", name.Value())

	other := c.ExtractValueToCopy("Description")
	assert.False(t, other.IsSpecified())
	assert.Nil(t, other.Value())
	assert.Equal(t, NotSpecified, other)

	assert.False(t, c.ChildTableNames().Test("AD_WF_Node"))
}

func TestTableNamePredicate(t *testing.T) {
	assert.True(t, AllTables().Test("C_BPartner"))
	assert.False(t, NoTables().Test("C_BPartner"))

	only := OnlyTables("C_BPartner_Location")
	assert.True(t, only.Test("C_BPartner_Location"))
	assert.False(t, only.Test("AD_User"))
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(NewWorkflowCustomizer(fixedClock))
	require.NoError(t, err)

	assert.Equal(t, []string{"AD_Workflow"}, r.TableNames())
	assert.ErrorContains(t, r.Register(NewWorkflowCustomizer(nil)), "already registered")

	_, ok := r.ForTable("C_BPartner")
	assert.False(t, ok)

	copied := r.ApplyToRecord("AD_Workflow", map[string]any{
		"Name":        "Order approval",
		"Description": "approve orders",
		"Priority":    5,
	})
	assert.Equal(t, map[string]any{
		"Name":        "Name_20240229:07:05:09",
		"Description": "approve orders",
		"Priority":    5,
	}, copied)

	untouched := r.ApplyToRecord("C_BPartner", map[string]any{"Name": "Acme"})
	assert.Equal(t, "Acme", untouched["Name"])

	assert.False(t, r.CopiesChildTable("AD_Workflow", "AD_WF_Node"))
	assert.True(t, r.CopiesChildTable("C_BPartner", "C_BPartner_Location"))
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(fixedClock)

	assert.Equal(t, []string{WorkflowTableName}, r.TableNames())

	c, ok := r.ForTable(WorkflowTableName)
	require.True(t, ok)
	assert.Equal(t, "Name_20240229:07:05:09", c.ExtractValueToCopy(WorkflowColumnName).Value())
	assert.False(t, r.CopiesChildTable(WorkflowTableName, "AD_WF_Node"))
}
