package load

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

func TestWriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	table := pricesTable(t)

	path, err := WriteCSV(dir, "merged_data.csv", table)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "merged_data.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,symbol,Close\n2024-01-02,AAPL,185.64\n2024-01-03,AAPL,184.25\n2024-01-04,AAPL,\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteCSVOverwrites(t *testing.T) {
	dir := t.TempDir()
	one, err := frame.New("t", []string{"a"}, [][]frame.Value{{frame.NumberValue(1)}, {frame.NumberValue(2)}})
	require.NoError(t, err)
	two, err := frame.New("t", []string{"b"}, [][]frame.Value{{frame.DateValue(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}})
	require.NoError(t, err)

	_, err = WriteCSV(dir, "t.csv", one)
	require.NoError(t, err)
	path, err := WriteCSV(dir, "t.csv", two)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b\n2024-01-01\n", string(content))
}
