package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeftJoin(t *testing.T) {
	left, err := New("historical", []string{"Date", "Close", "Dividends"}, [][]Value{
		{day(2024, 1, 1), NumberValue(10), NumberValue(0)},
		{day(2024, 1, 2), NumberValue(11), NumberValue(0.24)},
		{Null, NumberValue(12), NumberValue(0)},
	})
	require.NoError(t, err)

	tests := []struct {
		name            string
		right           [][]Value
		expectedRows    int
		expectedColumns []string
	}{
		{
			name:            "unique keys keep anchor cardinality",
			right:           [][]Value{{day(2024, 1, 2), NumberValue(0.24)}},
			expectedRows:    3,
			expectedColumns: []string{"Date", "Close", "Dividends_x", "Dividends_y"},
		},
		{
			name: "repeated key fans out",
			right: [][]Value{
				{day(2024, 1, 2), NumberValue(0.24)},
				{day(2024, 1, 2), NumberValue(0.25)},
			},
			expectedRows:    4,
			expectedColumns: []string{"Date", "Close", "Dividends_x", "Dividends_y"},
		},
		{
			name:            "missing key on right never matches",
			right:           [][]Value{{Null, NumberValue(1)}},
			expectedRows:    3,
			expectedColumns: []string{"Date", "Close", "Dividends_x", "Dividends_y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			right, err := New("dividends", []string{"Date", "Dividends"}, tt.right)
			require.NoError(t, err)

			got, err := LeftJoin(left, right, "Date")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedColumns, got.Columns)
			assert.Equal(t, tt.expectedRows, got.Len())
			assert.True(t, got.Rows[0][3].IsMissing())
			assert.True(t, got.Rows[got.Len()-1][3].IsMissing())
		})
	}
}

func TestLeftJoinRejectsDuplicateSuffixedColumn(t *testing.T) {
	left, err := New("historical", []string{"Date", "Dividends", "Dividends_y"}, [][]Value{
		{day(2024, 1, 2), NumberValue(0), NumberValue(0.24)},
	})
	require.NoError(t, err)
	right, err := New("dividends", []string{"Date", "Dividends"}, [][]Value{
		{day(2024, 1, 2), NumberValue(0.24)},
	})
	require.NoError(t, err)

	_, err = LeftJoin(left, right, "Date")
	assert.ErrorIs(t, err, ErrDuplicateColumn)
	assert.ErrorContains(t, err, `"Dividends_y"`)
}

func TestLeftJoinMissingKey(t *testing.T) {
	left, err := New("l", []string{"Date"}, nil)
	require.NoError(t, err)
	right, err := New("r", []string{"When"}, nil)
	require.NoError(t, err)

	_, err = LeftJoin(left, right, "Date")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}
