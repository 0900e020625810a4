package tableops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablenerd/internal/table"
)

func cityFixture() *table.Table {
	return table.MustNew(
		[]string{"city", "population", "region"},
		[][]any{
			{"Paris", 2.1, "north"},
			{"Lyon", 0.5, "south"},
			{"Paris", 2.1, "north"},
			{"Marseille", nil, "south"},
		},
	)
}

func TestColumnNames(t *testing.T) {
	t.Run("returns header in order", func(t *testing.T) {
		names, err := ColumnNames(cityFixture())
		require.NoError(t, err)
		assert.Equal(t, []string{"city", "population", "region"}, names)
	})

	t.Run("empty table", func(t *testing.T) {
		empty := table.MustNew([]string{"a"}, nil)
		_, err := ColumnNames(empty)
		var emptyErr *EmptyTableError
		require.ErrorAs(t, err, &emptyErr)
	})
}

func TestDescribeColumn(t *testing.T) {
	t.Run("frequency descending with ties by first appearance", func(t *testing.T) {
		detail, err := DescribeColumn(cityFixture(), "city")
		require.NoError(t, err)

		assert.Equal(t, "city", detail.ColumnName)
		assert.Equal(t, []string{"Paris", "Lyon", "Marseille"}, detail.UniqueValues)

		require.Len(t, detail.ValueDetails, 3)
		assert.Equal(t, ValueCount{Value: "Paris", Count: 2, Percentage: 50.0}, detail.ValueDetails[0])
		assert.Equal(t, ValueCount{Value: "Lyon", Count: 1, Percentage: 25.0}, detail.ValueDetails[1])
	})

	t.Run("percentages sum to roughly 100", func(t *testing.T) {
		detail, err := DescribeColumn(cityFixture(), "region")
		require.NoError(t, err)

		total := 0.0
		for _, vc := range detail.ValueDetails {
			total += vc.Percentage
		}
		assert.InDelta(t, 100.0, total, 0.5)
	})

	t.Run("missing cells counted under the missing bucket", func(t *testing.T) {
		detail, err := DescribeColumn(cityFixture(), "population")
		require.NoError(t, err)

		found := false
		for _, vc := range detail.ValueDetails {
			if vc.Value == "<MISSING>" {
				found = true
				assert.Equal(t, 1, vc.Count)
			}
		}
		assert.True(t, found, "expected a <MISSING> bucket")
	})

	t.Run("unknown column lists available columns", func(t *testing.T) {
		_, err := DescribeColumn(cityFixture(), "country")
		var notFound *ColumnNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "country", notFound.Column)
		assert.Contains(t, err.Error(), "Available columns: city, population, region")
	})

	t.Run("empty table", func(t *testing.T) {
		empty := table.MustNew([]string{"city"}, nil)
		_, err := DescribeColumn(empty, "city")
		var emptyErr *EmptyTableError
		require.ErrorAs(t, err, &emptyErr)
	})

	t.Run("blank column name", func(t *testing.T) {
		_, err := DescribeColumn(cityFixture(), "")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestClassifyColumns(t *testing.T) {
	t.Run("distinct density below threshold is categorical", func(t *testing.T) {
		rows := make([][]any, 40)
		for i := range rows {
			status := "active"
			if i%2 == 0 {
				status = "closed"
			}
			rows[i] = []any{float64(i), status}
		}
		tbl := table.MustNew([]string{"id", "status"}, rows)

		classes, err := ClassifyColumns(tbl)
		require.NoError(t, err)
		require.Len(t, classes, 2)

		assert.False(t, classes[0].IsCategorical, "id has 40 distinct values over 40 rows")
		assert.Empty(t, classes[0].UniqueValues)

		assert.True(t, classes[1].IsCategorical, "status has 2 distinct values over 40 rows")
		assert.ElementsMatch(t, []string{"closed", "active"}, classes[1].UniqueValues)
	})

	t.Run("missing values do not count as distinct", func(t *testing.T) {
		rows := make([][]any, 40)
		for i := range rows {
			rows[i] = []any{nil}
		}
		rows[0] = []any{"x"}
		tbl := table.MustNew([]string{"sparse"}, rows)

		classes, err := ClassifyColumns(tbl)
		require.NoError(t, err)
		assert.True(t, classes[0].IsCategorical)
		assert.Equal(t, []string{"x"}, classes[0].UniqueValues)
	})

	t.Run("zero rows classifies nothing as categorical", func(t *testing.T) {
		tbl := table.MustNew([]string{"a", "b"}, nil)
		classes, err := ClassifyColumns(tbl)
		require.NoError(t, err)
		for _, c := range classes {
			assert.False(t, c.IsCategorical)
		}
	})

	t.Run("no columns at all", func(t *testing.T) {
		_, err := ClassifyColumns(nil)
		var emptyErr *EmptyTableError
		require.ErrorAs(t, err, &emptyErr)
	})
}

func TestSampleColumnValues(t *testing.T) {
	t.Run("deterministic across calls", func(t *testing.T) {
		tbl := cityFixture()
		first, err := SampleColumnValues(tbl, 3)
		require.NoError(t, err)
		second, err := SampleColumnValues(tbl, 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("samples are rows of the table", func(t *testing.T) {
		tbl := cityFixture()
		samples, err := SampleColumnValues(tbl, 2)
		require.NoError(t, err)
		require.Len(t, samples, 3)

		cities, _ := tbl.Column("city")
		for _, v := range samples[0].SampleValues {
			assert.Contains(t, cities, v)
		}
		assert.Len(t, samples[0].SampleValues, 2)
	})

	t.Run("rejects non-positive count", func(t *testing.T) {
		_, err := SampleColumnValues(cityFixture(), 0)
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("rejects count above row count", func(t *testing.T) {
		_, err := SampleColumnValues(cityFixture(), 5)
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "without replacement")
	})

	t.Run("empty table", func(t *testing.T) {
		empty := table.MustNew([]string{"a"}, nil)
		_, err := SampleColumnValues(empty, 1)
		var emptyErr *EmptyTableError
		require.ErrorAs(t, err, &emptyErr)
	})
}
