package load

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

// WriteParquet persists a table as a ZSTD-compressed Parquet file. Column
// types follow the same inference as the Postgres sink; every column is optional.
func WriteParquet(dir, fileName string, table *frame.Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName)

	types := columnTypes(table)

	fh, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("cannot create local file %s: %w", path, err)
	}
	defer fh.Close()

	pw, err := writer.NewCSVWriter(parquetSchema(table.Columns, types), fh, 4)
	if err != nil {
		return "", fmt.Errorf("failed to create parquet writer: %w", err)
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for i, row := range table.Rows {
		if err := pw.Write(parquetRecord(row, types)); err != nil {
			return "", fmt.Errorf("parquet write failed for row %d of %s: %w", i, table.Name, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return "", fmt.Errorf("parquet write failed: %w", err)
	}

	return path, nil
}

func parquetSchema(columns, types []string) []string {
	md := make([]string, len(columns))
	for i, c := range columns {
		var typ string
		switch types[i] {
		case pgDouble:
			typ = "type=DOUBLE"
		case pgDate:
			typ = "type=INT32, convertedtype=DATE"
		case pgTimestamptz:
			typ = "type=INT64, convertedtype=TIMESTAMP_MILLIS"
		case pgBoolean:
			typ = "type=BOOLEAN"
		default:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"
		}
		md[i] = fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", c, typ)
	}
	return md
}

func parquetRecord(row []frame.Value, types []string) []any {
	rec := make([]any, len(row))
	for i, v := range row {
		if v.IsMissing() {
			continue
		}
		switch types[i] {
		case pgDouble:
			rec[i] = v.Num
		case pgDate:
			rec[i] = int32(v.Time.Unix() / int64(24*time.Hour/time.Second))
		case pgTimestamptz:
			rec[i] = v.Time.UnixMilli()
		case pgBoolean:
			rec[i] = v.Flag
		default:
			rec[i] = v.String()
		}
	}
	return rec
}
