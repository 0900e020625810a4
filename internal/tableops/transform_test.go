package tableops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablenerd/internal/table"
)

func TestRenameColumn(t *testing.T) {
	t.Run("renames and preserves data", func(t *testing.T) {
		src := cityFixture()
		out, err := RenameColumn(src, "city", "municipality")
		require.NoError(t, err)

		assert.Equal(t, []string{"municipality", "population", "region"}, out.Columns())
		assert.Equal(t, "Paris", out.Cell(0, 0))
		assert.True(t, src.HasColumn("city"), "source table untouched")
	})

	t.Run("self rename is a no-op success", func(t *testing.T) {
		src := cityFixture()
		out, err := RenameColumn(src, "city", "city")
		require.NoError(t, err)
		assert.Same(t, src, out)
	})

	t.Run("conflict with existing column", func(t *testing.T) {
		_, err := RenameColumn(cityFixture(), "city", "region")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("unknown source column", func(t *testing.T) {
		_, err := RenameColumn(cityFixture(), "country", "nation")
		var notFound *ColumnNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("blank new name", func(t *testing.T) {
		_, err := RenameColumn(cityFixture(), "city", "")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("empty table", func(t *testing.T) {
		empty := table.MustNew([]string{"a"}, nil)
		_, err := RenameColumn(empty, "a", "b")
		var emptyErr *EmptyTableError
		require.ErrorAs(t, err, &emptyErr)
	})
}

func TestReplaceValue(t *testing.T) {
	t.Run("replaces every matching cell", func(t *testing.T) {
		src := table.MustNew(
			[]string{"state"},
			[][]any{{"Calofornia"}, {"Texas"}, {"Calofornia"}},
		)
		out, err := ReplaceValue(src, "state", "Calofornia", "California")
		require.NoError(t, err)

		assert.Equal(t, "California", out.Cell(0, 0))
		assert.Equal(t, "Texas", out.Cell(1, 0))
		assert.Equal(t, "California", out.Cell(2, 0))
		assert.Equal(t, "Calofornia", src.Cell(0, 0), "source table untouched")
	})

	t.Run("NaN token targets missing cells", func(t *testing.T) {
		src := table.MustNew(
			[]string{"score"},
			[][]any{{1.0}, {nil}, {math.NaN()}},
		)
		out, err := ReplaceValue(src, "score", "NaN", "0")
		require.NoError(t, err)

		assert.Equal(t, 1.0, out.Cell(0, 0))
		assert.Equal(t, "0", out.Cell(1, 0))
		assert.Equal(t, "0", out.Cell(2, 0))
	})

	t.Run("numeric match via display form", func(t *testing.T) {
		src := table.MustNew([]string{"n"}, [][]any{{1.0}, {2.0}})
		out, err := ReplaceValue(src, "n", "1", "one")
		require.NoError(t, err)
		assert.Equal(t, "one", out.Cell(0, 0))
		assert.Equal(t, 2.0, out.Cell(1, 0))
	})

	t.Run("no match is a no-op success", func(t *testing.T) {
		src := cityFixture()
		out, err := ReplaceValue(src, "city", "Atlantis", "Lemuria")
		require.NoError(t, err)
		assert.Same(t, src, out)
	})

	t.Run("missing parameters", func(t *testing.T) {
		_, err := ReplaceValue(cityFixture(), "city", "", "x")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ReplaceValue(cityFixture(), "country", "a", "b")
		var notFound *ColumnNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestAddDerivedColumn(t *testing.T) {
	numeric := func() *table.Table {
		return table.MustNew(
			[]string{"a", "b"},
			[][]any{{1.0, 3.0}, {2.0, 4.0}},
		)
	}

	t.Run("sum appends a new column", func(t *testing.T) {
		out, err := AddDerivedColumn(numeric(), "total", OpSum, []string{"a", "b"})
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "total"}, out.Columns())
		assert.Equal(t, 4.0, out.Cell(0, 2))
		assert.Equal(t, 6.0, out.Cell(1, 2))
	})

	t.Run("difference and mean", func(t *testing.T) {
		out, err := AddDerivedColumn(numeric(), "diff", OpDifference, []string{"b", "a"})
		require.NoError(t, err)
		assert.Equal(t, 2.0, out.Cell(0, 2))

		out, err = AddDerivedColumn(numeric(), "avg", OpMean, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, 2.0, out.Cell(0, 2))
		assert.Equal(t, 3.0, out.Cell(1, 2))
	})

	t.Run("quotient by zero yields infinity", func(t *testing.T) {
		src := table.MustNew([]string{"a", "b"}, [][]any{{1.0, 0.0}})
		out, err := AddDerivedColumn(src, "ratio", OpQuotient, []string{"a", "b"})
		require.NoError(t, err)
		assert.True(t, math.IsInf(out.Cell(0, 2).(float64), 1))
	})

	t.Run("non-numeric source yields NaN", func(t *testing.T) {
		src := table.MustNew([]string{"a", "b"}, [][]any{{"text", 2.0}})
		out, err := AddDerivedColumn(src, "sum", OpSum, []string{"a", "b"})
		require.NoError(t, err)
		assert.True(t, math.IsNaN(out.Cell(0, 2).(float64)))
	})

	t.Run("difference rejects three source columns", func(t *testing.T) {
		src := table.MustNew([]string{"a", "b", "c"}, [][]any{{1.0, 2.0, 3.0}})
		_, err := AddDerivedColumn(src, "d", OpDifference, []string{"a", "b", "c"})
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "exactly two")
	})

	t.Run("unsupported operation names the keyword", func(t *testing.T) {
		_, err := AddDerivedColumn(numeric(), "x", "median", []string{"a", "b"})
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "median")
	})

	t.Run("fewer than two source columns", func(t *testing.T) {
		_, err := AddDerivedColumn(numeric(), "x", OpSum, []string{"a"})
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("unknown source column", func(t *testing.T) {
		_, err := AddDerivedColumn(numeric(), "x", OpSum, []string{"a", "zzz"})
		var notFound *ColumnNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "zzz", notFound.Column)
	})

	t.Run("overwrites an existing column in place", func(t *testing.T) {
		out, err := AddDerivedColumn(numeric(), "b", OpSum, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, out.Columns())
		assert.Equal(t, 4.0, out.Cell(0, 1))
	})
}

func TestMergeLookup(t *testing.T) {
	primary := func() *table.Table {
		return table.MustNew(
			[]string{"city", "population"},
			[][]any{
				{"Paris", 2.1},
				{"Lyon", 0.5},
				{"Atlantis", 0.0},
				{nil, 1.0},
			},
		)
	}
	mapping := func() *table.Table {
		return table.MustNew(
			[]string{"name", "country"},
			[][]any{
				{"Paris", "France"},
				{"Lyon", "France"},
			},
		)
	}

	t.Run("left join preserves unmatched rows as missing", func(t *testing.T) {
		out, err := MergeLookup(primary(), mapping(), "city", "name", "country")
		require.NoError(t, err)

		assert.Equal(t, []string{"city", "population", "country"}, out.Columns())
		assert.Equal(t, 4, out.NumRows())
		assert.Equal(t, "France", out.Cell(0, 2))
		assert.Equal(t, "France", out.Cell(1, 2))
		assert.Nil(t, out.Cell(2, 2), "unmatched key gets a missing value")
		assert.Nil(t, out.Cell(3, 2), "missing key never matches")
	})

	t.Run("duplicate mapping keys fan out", func(t *testing.T) {
		dup := table.MustNew(
			[]string{"name", "country"},
			[][]any{
				{"Paris", "France"},
				{"Paris", "Texas, USA"},
			},
		)
		out, err := MergeLookup(primary(), dup, "city", "name", "country")
		require.NoError(t, err)

		assert.Equal(t, 5, out.NumRows(), "one extra row for the duplicate key")
		assert.Equal(t, "France", out.Cell(0, 2))
		assert.Equal(t, "Texas, USA", out.Cell(1, 2))
		assert.Equal(t, "Paris", out.Cell(1, 0))
	})

	t.Run("nil mapping table", func(t *testing.T) {
		_, err := MergeLookup(primary(), nil, "city", "name", "country")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "mapping table is not available")
	})

	t.Run("empty mapping table", func(t *testing.T) {
		empty := table.MustNew([]string{"name", "country"}, nil)
		_, err := MergeLookup(primary(), empty, "city", "name", "country")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("empty primary table", func(t *testing.T) {
		empty := table.MustNew([]string{"city"}, nil)
		_, err := MergeLookup(empty, mapping(), "city", "name", "country")
		var emptyErr *EmptyTableError
		require.ErrorAs(t, err, &emptyErr)
	})

	t.Run("new column conflicts with primary", func(t *testing.T) {
		_, err := MergeLookup(primary(), mapping(), "city", "name", "population")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("unknown keys", func(t *testing.T) {
		var notFound *ColumnNotFoundError

		_, err := MergeLookup(primary(), mapping(), "town", "name", "country")
		require.ErrorAs(t, err, &notFound)

		_, err = MergeLookup(primary(), mapping(), "city", "label", "country")
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("mapping with only a key column", func(t *testing.T) {
		keyOnly := table.MustNew([]string{"name"}, [][]any{{"Paris"}})
		_, err := MergeLookup(primary(), keyOnly, "city", "name", "country")
		var invalid *InvalidOperationError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "no value column")
	})
}

func TestClassify(t *testing.T) {
	t.Run("typed errors pass through", func(t *testing.T) {
		in := &ColumnNotFoundError{Column: "x"}
		out := Classify("op", in)
		assert.Same(t, error(in), out)
	})

	t.Run("unrecognized errors become invalid operation", func(t *testing.T) {
		out := Classify("column rename", assert.AnError)
		var invalid *InvalidOperationError
		require.ErrorAs(t, out, &invalid)
		assert.Equal(t, "column rename", invalid.Operation)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify("op", nil))
	})
}
