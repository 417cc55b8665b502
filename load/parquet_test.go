package load

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

func TestWriteParquet(t *testing.T) {
	dir := t.TempDir()
	table := pricesTable(t)

	path, err := WriteParquet(dir, "prices.parquet", table)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prices.parquet"), path)

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	assert.Equal(t, int64(3), pr.GetNumRows())
}

func TestParquetSchema(t *testing.T) {
	md := parquetSchema(
		[]string{"Date", "Close", "symbol", "flag", "ts"},
		[]string{pgDate, pgDouble, pgText, pgBoolean, pgTimestamptz},
	)

	assert.Equal(t, []string{
		"name=Date, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL",
		"name=Close, type=DOUBLE, repetitiontype=OPTIONAL",
		"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL",
		"name=flag, type=BOOLEAN, repetitiontype=OPTIONAL",
		"name=ts, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL",
	}, md)
}

func TestParquetRecord(t *testing.T) {
	table := pricesTable(t)
	types := columnTypes(table)

	first := parquetRecord(table.Rows[0], types)
	assert.Equal(t, []any{int32(19724), "AAPL", 185.64}, first)

	last := parquetRecord(table.Rows[2], types)
	assert.Nil(t, last[2])
}
