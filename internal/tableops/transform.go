package tableops

import (
	"fmt"
	"strings"

	"tablenerd/internal/table"
)

// Supported derived-column operation keywords.
const (
	OpSum        = "sum"
	OpDifference = "difference"
	OpProduct    = "product"
	OpQuotient   = "quotient"
	OpMean       = "mean"
)

// RenameColumn returns a copy of the table with one column relabeled.
// Renaming a column to its own current name is a no-op success; renaming
// onto a different existing column fails.
func RenameColumn(t *table.Table, oldName, newName string) (*table.Table, error) {
	const op = "column rename"
	if t.IsEmpty() {
		return nil, &EmptyTableError{Operation: op}
	}
	if oldName == "" {
		return nil, &ColumnNotFoundError{Column: oldName, Available: t.Columns()}
	}
	if newName == "" {
		return nil, &InvalidOperationError{Operation: op, Detail: "new_column_name must be a non-empty string"}
	}
	idx, ok := t.ColumnIndex(oldName)
	if !ok {
		return nil, &ColumnNotFoundError{Column: oldName, Available: t.Columns()}
	}
	if oldName == newName {
		return t, nil
	}
	if t.HasColumn(newName) {
		return nil, &InvalidOperationError{Operation: op, Detail: "new column name already exists"}
	}

	columns := t.Columns()
	columns[idx] = newName
	rows := make([][]any, t.NumRows())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return table.New(columns, rows)
}

// ReplaceValue returns a copy of the table with every cell of the column
// matching oldValue replaced by newValue. The literal tokens "nan" and
// "none" (case-insensitive) target missing cells instead of string
// matches. A value with no matches is a no-op success.
func ReplaceValue(t *table.Table, columnName, oldValue, newValue string) (*table.Table, error) {
	const op = "replace value"
	if columnName == "" || oldValue == "" || newValue == "" {
		return nil, &InvalidOperationError{Operation: op,
			Detail: "missing required parameters; provide 'column_name', 'old_value' and 'new_value'"}
	}
	colIdx, ok := t.ColumnIndex(columnName)
	if !ok {
		return nil, &ColumnNotFoundError{Column: columnName, Available: t.Columns()}
	}

	targetMissing := false
	switch strings.ToLower(oldValue) {
	case "nan", "none":
		targetMissing = true
	}

	matched := false
	out := t.Clone()
	for i := 0; i < out.NumRows(); i++ {
		cell := out.Cell(i, colIdx)
		replace := false
		if targetMissing {
			replace = table.IsMissing(cell)
		} else {
			replace = !table.IsMissing(cell) && table.FormatValue(cell) == oldValue
		}
		if replace {
			out.SetCell(i, colIdx, newValue)
			matched = true
		}
	}
	if !matched {
		return t, nil
	}
	return out, nil
}

// AddDerivedColumn returns a copy of the table with a new column computed
// row-wise from existing columns. An existing column with the same name
// is silently overwritten; this is documented behavior. All arithmetic is
// float64: division by zero yields an infinity, undefined results and
// non-numeric source cells yield NaN rather than an error.
func AddDerivedColumn(t *table.Table, columnName, operationType string, sourceColumns []string) (*table.Table, error) {
	const op = "add derived column"
	if columnName == "" {
		return nil, &InvalidOperationError{Operation: op, Detail: "column_name must be a non-empty string"}
	}
	if len(sourceColumns) < 2 {
		return nil, &InvalidOperationError{Operation: op, Detail: "source_columns must list at least two columns"}
	}
	sourceIdx := make([]int, len(sourceColumns))
	for i, name := range sourceColumns {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			return nil, &ColumnNotFoundError{Column: name, Available: t.Columns()}
		}
		sourceIdx[i] = idx
	}

	switch operationType {
	case OpDifference, OpQuotient:
		if len(sourceColumns) != 2 {
			return nil, &InvalidOperationError{Operation: op,
				Detail: fmt.Sprintf("'%s' operation requires exactly two source columns", operationType)}
		}
	case OpSum, OpProduct, OpMean:
	default:
		return nil, &InvalidOperationError{Operation: op,
			Detail: fmt.Sprintf("unsupported operation_type '%s'; use 'sum', 'difference', 'product', 'quotient' or 'mean'", operationType)}
	}

	derived := make([]any, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		operands := make([]float64, len(sourceIdx))
		for j, idx := range sourceIdx {
			operands[j] = table.ToFloat(t.Cell(i, idx))
		}
		derived[i] = applyOperation(operationType, operands)
	}

	if existing, ok := t.ColumnIndex(columnName); ok {
		out := t.Clone()
		for i := 0; i < out.NumRows(); i++ {
			out.SetCell(i, existing, derived[i])
		}
		return out, nil
	}
	columns := append(t.Columns(), columnName)
	rows := make([][]any, t.NumRows())
	for i := range rows {
		rows[i] = append(t.Row(i), derived[i])
	}
	return table.New(columns, rows)
}

// MergeLookup left-joins the mapping table into the primary table. Every
// primary row is preserved; unmatched rows receive a missing value in
// newColumnName. Duplicate keys in the mapping table fan out: one output
// row per matching pair. The mapping value is taken from the first
// mapping column other than the key.
func MergeLookup(primary, mapping *table.Table, primaryKey, mappingKey, newColumnName string) (*table.Table, error) {
	const op = "merge lookup"
	if mapping == nil || mapping.IsEmpty() {
		return nil, &InvalidOperationError{Operation: op,
			Detail: "mapping table is not available; enrichment requires a non-empty mapping table"}
	}
	if primary.IsEmpty() {
		return nil, &EmptyTableError{Operation: op}
	}
	if newColumnName == "" {
		return nil, &InvalidOperationError{Operation: op, Detail: "new_column_name must be a non-empty string"}
	}
	pIdx, ok := primary.ColumnIndex(primaryKey)
	if !ok {
		return nil, &ColumnNotFoundError{Column: primaryKey, Available: primary.Columns()}
	}
	mIdx, ok := mapping.ColumnIndex(mappingKey)
	if !ok {
		return nil, &ColumnNotFoundError{Column: mappingKey, Available: mapping.Columns()}
	}
	if primary.HasColumn(newColumnName) {
		return nil, &InvalidOperationError{Operation: op,
			Detail: fmt.Sprintf("column '%s' already exists in the primary table", newColumnName)}
	}
	valueIdx := -1
	for i := range mapping.Columns() {
		if i != mIdx {
			valueIdx = i
			break
		}
	}
	if valueIdx < 0 {
		return nil, &InvalidOperationError{Operation: op,
			Detail: "mapping table has no value column besides the key"}
	}

	// Key -> mapping values, preserving mapping row order for fan-out.
	lookup := make(map[string][]any)
	for i := 0; i < mapping.NumRows(); i++ {
		key := table.FormatValue(mapping.Cell(i, mIdx))
		lookup[key] = append(lookup[key], mapping.Cell(i, valueIdx))
	}

	columns := append(primary.Columns(), newColumnName)
	rows := make([][]any, 0, primary.NumRows())
	for i := 0; i < primary.NumRows(); i++ {
		key := table.FormatValue(primary.Cell(i, pIdx))
		matches, found := lookup[key]
		if !found || table.IsMissing(primary.Cell(i, pIdx)) {
			rows = append(rows, append(primary.Row(i), nil))
			continue
		}
		for _, v := range matches {
			rows = append(rows, append(primary.Row(i), v))
		}
	}
	return table.New(columns, rows)
}

func applyOperation(operationType string, operands []float64) float64 {
	switch operationType {
	case OpSum:
		total := 0.0
		for _, v := range operands {
			total += v
		}
		return total
	case OpDifference:
		return operands[0] - operands[1]
	case OpProduct:
		product := operands[0]
		for _, v := range operands[1:] {
			product *= v
		}
		return product
	case OpQuotient:
		return operands[0] / operands[1]
	case OpMean:
		total := 0.0
		for _, v := range operands {
			total += v
		}
		return total / float64(len(operands))
	}
	return 0 // unreachable: operationType validated by caller
}
