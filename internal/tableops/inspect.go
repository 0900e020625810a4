package tableops

import (
	"math"
	"math/rand"
	"sort"

	"tablenerd/internal/table"
)

// missingBucket is the synthetic category missing cells are counted
// under in DescribeColumn output.
const missingBucket = "<MISSING>"

// sampleSeed fixes the sampling order so repeated calls over the same
// table snapshot return identical samples.
const sampleSeed = 42

// categoricalRatio is the distinct-density threshold below which a
// column is classified as categorical.
const categoricalRatio = 0.1

// ValueCount describes one distinct value of a column.
type ValueCount struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ColumnDetail is the DescribeColumn payload: distinct values ordered by
// descending frequency with counts and percentages of total rows.
type ColumnDetail struct {
	ColumnName   string       `json:"column_name"`
	UniqueValues []string     `json:"unique_values"`
	ValueDetails []ValueCount `json:"value_details"`
}

// ColumnClass is the per-column classification payload. UniqueValues is
// populated only for categorical columns.
type ColumnClass struct {
	ColumnName    string   `json:"column_name"`
	IsCategorical bool     `json:"is_categorical"`
	UniqueValues  []string `json:"unique_values,omitempty"`
}

// ColumnSample holds sampled values for one column.
type ColumnSample struct {
	ColumnName   string `json:"column_name"`
	SampleValues []any  `json:"sample_values"`
}

// ColumnNames returns the table's column names in order.
func ColumnNames(t *table.Table) ([]string, error) {
	if t.IsEmpty() {
		return nil, &EmptyTableError{Operation: "get column names"}
	}
	return t.Columns(), nil
}

// DescribeColumn profiles a single column: every distinct value with its
// count and percentage of total rows, ordered by descending frequency
// (ties broken by first appearance). Missing cells are counted under the
// <MISSING> bucket rather than dropped. Percentages are rounded to one
// decimal place.
func DescribeColumn(t *table.Table, columnName string) (*ColumnDetail, error) {
	const op = "column profile"
	if t.IsEmpty() {
		return nil, &EmptyTableError{Operation: op}
	}
	if columnName == "" {
		return nil, &InvalidOperationError{Operation: op, Detail: "column_name must be a non-empty string"}
	}
	values, ok := t.Column(columnName)
	if !ok {
		return nil, &ColumnNotFoundError{Column: columnName, Available: t.Columns()}
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := make([]string, 0)
	for i, v := range values {
		key := missingBucket
		if !table.IsMissing(v) {
			key = table.FormatValue(v)
		}
		if _, seen := counts[key]; !seen {
			firstSeen[key] = i
			order = append(order, key)
		}
		counts[key]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	total := t.NumRows()
	detail := &ColumnDetail{
		ColumnName:   columnName,
		UniqueValues: order,
		ValueDetails: make([]ValueCount, 0, len(order)),
	}
	for _, key := range order {
		pct := float64(counts[key]) / float64(total) * 100
		detail.ValueDetails = append(detail.ValueDetails, ValueCount{
			Value:      key,
			Count:      counts[key],
			Percentage: math.Round(pct*10) / 10,
		})
	}
	return detail, nil
}

// ClassifyColumns labels every column categorical or continuous. A
// column is categorical iff distinct non-missing values divided by total
// rows is below 0.1; a zero-row table classifies nothing as categorical.
// Categorical columns carry their full distinct-value list.
func ClassifyColumns(t *table.Table) ([]ColumnClass, error) {
	if t == nil || t.NumColumns() == 0 {
		return nil, &EmptyTableError{Operation: "column classification"}
	}

	numRows := t.NumRows()
	result := make([]ColumnClass, 0, t.NumColumns())
	for _, name := range t.Columns() {
		values, _ := t.Column(name)
		distinct := make([]string, 0)
		seen := make(map[string]struct{})
		for _, v := range values {
			if table.IsMissing(v) {
				continue
			}
			key := table.FormatValue(v)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			distinct = append(distinct, key)
		}

		isCategorical := numRows > 0 && float64(len(distinct))/float64(numRows) < categoricalRatio
		class := ColumnClass{ColumnName: name, IsCategorical: isCategorical}
		if isCategorical {
			class.UniqueValues = distinct
		}
		result = append(result, class)
	}
	return result, nil
}

// SampleColumnValues draws numSamples values from every column without
// replacement. The row selection is seeded with a fixed constant, so the
// same table snapshot always produces the same sample.
func SampleColumnValues(t *table.Table, numSamples int) ([]ColumnSample, error) {
	const op = "column sample values"
	if t.IsEmpty() {
		return nil, &EmptyTableError{Operation: op}
	}
	if numSamples <= 0 {
		return nil, &InvalidOperationError{Operation: op, Detail: "num_samples must be a positive integer"}
	}
	if numSamples > t.NumRows() {
		return nil, &InvalidOperationError{Operation: op,
			Detail: "num_samples exceeds the number of available rows (sampling is without replacement)"}
	}

	rng := rand.New(rand.NewSource(sampleSeed))
	indexes := rng.Perm(t.NumRows())[:numSamples]

	result := make([]ColumnSample, 0, t.NumColumns())
	for _, name := range t.Columns() {
		colIdx, _ := t.ColumnIndex(name)
		sample := make([]any, 0, numSamples)
		for _, rowIdx := range indexes {
			sample = append(sample, t.Cell(rowIdx, colIdx))
		}
		result = append(result, ColumnSample{ColumnName: name, SampleValues: sample})
	}
	return result, nil
}
