package agent

import (
	"fmt"

	"tablenerd/internal/logging"
	"tablenerd/internal/perception"
	"tablenerd/internal/table"
	"tablenerd/internal/tableops"
)

// Property describes a single parameter for the JSON argument schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array").
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
type ToolSchema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

// HandlerFunc executes one tool invocation and always produces an
// envelope; typed operation errors are converted, never propagated.
type HandlerFunc func(args map[string]any) *ToolResponse

// Tool binds a name and argument schema to a handler closure capturing
// the agent's table state.
type Tool struct {
	Name        string
	Description string
	Schema      ToolSchema
	Handler     HandlerFunc
}

// Definition converts the tool to the wire schema published to the model.
func (t *Tool) Definition() perception.ToolDefinition {
	properties := make(map[string]any, len(t.Schema.Properties))
	for name, p := range t.Schema.Properties {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Items != nil {
			prop["items"] = map[string]any{"type": p.Items.Type}
		}
		properties[name] = prop
	}
	required := t.Schema.Required
	if required == nil {
		required = []string{}
	}
	return perception.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

// tableRoleProperty is the shared optional selector between the primary
// table and the mapping lookup table on inspection tools.
func tableRoleProperty() Property {
	return Property{
		Type:        "string",
		Description: "Which table to inspect: 'primary' (default) or 'mapping'.",
		Enum:        []any{"primary", "mapping"},
	}
}

// buildTools constructs the full registry once at agent construction.
// Handlers are closures over the agent so transformations can swap the
// held primary table reference on success.
func (a *Agent) buildTools() []*Tool {
	return []*Tool{
		{
			Name: "list_columns",
			Description: "Retrieves the names of all columns in the table, in order. " +
				"This is the definitive reference for column names.",
			Schema: ToolSchema{
				Properties: map[string]Property{"table": tableRoleProperty()},
			},
			Handler: a.handleListColumns,
		},
		{
			Name: "describe_column",
			Description: "Provides detailed information about a single column: unique values " +
				"ordered by frequency with counts and percentages. Missing values are reported " +
				"under a '<MISSING>' bucket. The best tool for spotting inconsistent values.",
			Schema: ToolSchema{
				Required: []string{"column_name"},
				Properties: map[string]Property{
					"column_name": {Type: "string", Description: "The exact name of the column to analyze."},
					"table":       tableRoleProperty(),
				},
			},
			Handler: a.handleDescribeColumn,
		},
		{
			Name: "classify_columns",
			Description: "Classifies every column as categorical or continuous. Categorical " +
				"columns include their full list of distinct values. Useful for an initial " +
				"assessment of the table.",
			Schema: ToolSchema{
				Properties: map[string]Property{"table": tableRoleProperty()},
			},
			Handler: a.handleClassifyColumns,
		},
		{
			Name: "sample_column_values",
			Description: "Retrieves a deterministic sample of values from every column. " +
				"Useful for quickly checking value patterns across the table.",
			Schema: ToolSchema{
				Required: []string{"num_samples"},
				Properties: map[string]Property{
					"num_samples": {Type: "integer", Description: "Number of values to sample per column."},
				},
			},
			Handler: a.handleSampleColumnValues,
		},
		{
			Name:        "rename_column",
			Description: "Renames a column of the primary table.",
			Schema: ToolSchema{
				Required: []string{"old_column_name", "new_column_name"},
				Properties: map[string]Property{
					"old_column_name": {Type: "string", Description: "The current name of the column."},
					"new_column_name": {Type: "string", Description: "The new name for the column."},
				},
			},
			Handler: a.handleRenameColumn,
		},
		{
			Name: "replace_value",
			Description: "Replaces a specific value in a column of the primary table with a new value. " +
				"Passing 'NaN' or 'None' as the old value targets missing cells.",
			Schema: ToolSchema{
				Required: []string{"column_name", "old_value", "new_value"},
				Properties: map[string]Property{
					"column_name": {Type: "string", Description: "The column where the replacement occurs."},
					"old_value":   {Type: "string", Description: "The value to be replaced."},
					"new_value":   {Type: "string", Description: "The replacement value."},
				},
			},
			Handler: a.handleReplaceValue,
		},
		{
			Name: "add_derived_column",
			Description: "Adds a new column to the primary table computed row-wise from existing " +
				"columns with a safe, pre-defined operation. 'difference' and 'quotient' require " +
				"exactly two source columns; the others accept two or more.",
			Schema: ToolSchema{
				Required: []string{"column_name", "operation_type", "source_columns"},
				Properties: map[string]Property{
					"column_name": {Type: "string", Description: "The name for the new column."},
					"operation_type": {
						Type:        "string",
						Description: "The operation to apply across the source columns.",
						Enum: []any{
							tableops.OpSum, tableops.OpDifference, tableops.OpProduct,
							tableops.OpQuotient, tableops.OpMean,
						},
					},
					"source_columns": {
						Type:        "array",
						Description: "The existing columns to compute from, in order.",
						Items:       &PropertyItems{Type: "string"},
					},
				},
			},
			Handler: a.handleAddDerivedColumn,
		},
		{
			Name: "merge_lookup",
			Description: "Enriches the primary table by left-joining the mapping table on a key " +
				"column pair, adding the mapping value as a new column. Unmatched rows get a " +
				"missing value; duplicate mapping keys produce one row per match.",
			Schema: ToolSchema{
				Required: []string{"primary_key_column", "mapping_key_column", "new_column_name"},
				Properties: map[string]Property{
					"primary_key_column": {Type: "string", Description: "Join key column in the primary table."},
					"mapping_key_column": {Type: "string", Description: "Join key column in the mapping table."},
					"new_column_name":    {Type: "string", Description: "Name for the enrichment column."},
				},
			},
			Handler: a.handleMergeLookup,
		},
	}
}

func (a *Agent) handleListColumns(args map[string]any) *ToolResponse {
	t, err := a.resolveTable(args)
	if err != nil {
		return Failure(err)
	}
	names, err := tableops.ColumnNames(t)
	if err != nil {
		return Failure(tableops.Classify("get column names", err))
	}
	return Success("Column names retrieved successfully", names)
}

func (a *Agent) handleDescribeColumn(args map[string]any) *ToolResponse {
	t, err := a.resolveTable(args)
	if err != nil {
		return Failure(err)
	}
	columnName, err := stringArg(args, "column_name")
	if err != nil {
		return Failure(err)
	}
	detail, err := tableops.DescribeColumn(t, columnName)
	if err != nil {
		return Failure(tableops.Classify("column profile", err))
	}
	return Success("Column details retrieved successfully", detail)
}

func (a *Agent) handleClassifyColumns(args map[string]any) *ToolResponse {
	t, err := a.resolveTable(args)
	if err != nil {
		return Failure(err)
	}
	classes, err := tableops.ClassifyColumns(t)
	if err != nil {
		return Failure(tableops.Classify("column classification", err))
	}
	return Success("Categorical and continuous info retrieved successfully", classes)
}

func (a *Agent) handleSampleColumnValues(args map[string]any) *ToolResponse {
	numSamples, err := intArg(args, "num_samples")
	if err != nil {
		return Failure(err)
	}
	samples, err := tableops.SampleColumnValues(a.primary, numSamples)
	if err != nil {
		return Failure(tableops.Classify("column sample values", err))
	}
	return Success("Sample values retrieved successfully", samples)
}

func (a *Agent) handleRenameColumn(args map[string]any) *ToolResponse {
	oldName, err := stringArg(args, "old_column_name")
	if err != nil {
		return Failure(err)
	}
	newName, err := stringArg(args, "new_column_name")
	if err != nil {
		return Failure(err)
	}
	updated, err := tableops.RenameColumn(a.primary, oldName, newName)
	if err != nil {
		return Failure(tableops.Classify("column rename", err))
	}
	a.setPrimary(updated)
	return Success(fmt.Sprintf("Successfully renamed column '%s' to '%s'.", oldName, newName), nil)
}

func (a *Agent) handleReplaceValue(args map[string]any) *ToolResponse {
	columnName, err := stringArg(args, "column_name")
	if err != nil {
		return Failure(err)
	}
	oldValue, err := stringArg(args, "old_value")
	if err != nil {
		return Failure(err)
	}
	newValue, err := stringArg(args, "new_value")
	if err != nil {
		return Failure(err)
	}
	updated, err := tableops.ReplaceValue(a.primary, columnName, oldValue, newValue)
	if err != nil {
		return Failure(tableops.Classify("replace value", err))
	}
	a.setPrimary(updated)
	return Success(fmt.Sprintf("Successfully replaced '%s' with '%s' in column '%s'.", oldValue, newValue, columnName), nil)
}

func (a *Agent) handleAddDerivedColumn(args map[string]any) *ToolResponse {
	columnName, err := stringArg(args, "column_name")
	if err != nil {
		return Failure(err)
	}
	operationType, err := stringArg(args, "operation_type")
	if err != nil {
		return Failure(err)
	}
	sourceColumns, err := stringSliceArg(args, "source_columns")
	if err != nil {
		return Failure(err)
	}
	updated, err := tableops.AddDerivedColumn(a.primary, columnName, operationType, sourceColumns)
	if err != nil {
		return Failure(tableops.Classify("add derived column", err))
	}
	a.setPrimary(updated)
	return Success(fmt.Sprintf("Successfully added new column '%s' with a '%s' operation.", columnName, operationType), nil)
}

func (a *Agent) handleMergeLookup(args map[string]any) *ToolResponse {
	primaryKey, err := stringArg(args, "primary_key_column")
	if err != nil {
		return Failure(err)
	}
	mappingKey, err := stringArg(args, "mapping_key_column")
	if err != nil {
		return Failure(err)
	}
	newColumn, err := stringArg(args, "new_column_name")
	if err != nil {
		return Failure(err)
	}
	updated, err := tableops.MergeLookup(a.primary, a.mapping, primaryKey, mappingKey, newColumn)
	if err != nil {
		return Failure(tableops.Classify("merge lookup", err))
	}
	a.setPrimary(updated)
	return Success(fmt.Sprintf("Successfully merged mapping data into new column '%s'.", newColumn), nil)
}

// resolveTable picks the table role an inspection tool targets.
func (a *Agent) resolveTable(args map[string]any) (*table.Table, error) {
	role := "primary"
	if v, ok := args["table"]; ok {
		s, isString := v.(string)
		if !isString {
			return nil, &tableops.InvalidOperationError{Operation: "table selection", Detail: "argument 'table' must be a string"}
		}
		role = s
	}
	switch role {
	case "primary", "":
		return a.primary, nil
	case "mapping":
		if a.mapping == nil || a.mapping.IsEmpty() {
			return nil, &tableops.InvalidOperationError{Operation: "table selection",
				Detail: "mapping table is not available for this session"}
		}
		return a.mapping, nil
	default:
		return nil, &tableops.InvalidOperationError{Operation: "table selection",
			Detail: fmt.Sprintf("unknown table role '%s'; use 'primary' or 'mapping'", role)}
	}
}

// setPrimary swaps the held primary reference. Called only after a
// transformation succeeded.
func (a *Agent) setPrimary(t *table.Table) {
	logging.ToolsDebug("primary table updated: rows=%d cols=%d", t.NumRows(), t.NumColumns())
	a.primary = t
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", &tableops.InvalidOperationError{Operation: "argument binding",
			Detail: fmt.Sprintf("missing required argument '%s'", name)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &tableops.InvalidOperationError{Operation: "argument binding",
			Detail: fmt.Sprintf("argument '%s' must be a string", name)}
	}
	return s, nil
}

func intArg(args map[string]any, name string) (int, error) {
	v, ok := args[name]
	if !ok {
		return 0, &tableops.InvalidOperationError{Operation: "argument binding",
			Detail: fmt.Sprintf("missing required argument '%s'", name)}
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case float64:
		// JSON numbers decode as float64.
		return int(x), nil
	default:
		return 0, &tableops.InvalidOperationError{Operation: "argument binding",
			Detail: fmt.Sprintf("argument '%s' must be an integer", name)}
	}
}

func stringSliceArg(args map[string]any, name string) ([]string, error) {
	v, ok := args[name]
	if !ok {
		return nil, &tableops.InvalidOperationError{Operation: "argument binding",
			Detail: fmt.Sprintf("missing required argument '%s'", name)}
	}
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, len(x))
		for i, item := range x {
			s, isString := item.(string)
			if !isString {
				return nil, &tableops.InvalidOperationError{Operation: "argument binding",
					Detail: fmt.Sprintf("argument '%s' must be a list of strings", name)}
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, &tableops.InvalidOperationError{Operation: "argument binding",
			Detail: fmt.Sprintf("argument '%s' must be a list of strings", name)}
	}
}
