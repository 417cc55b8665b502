package load

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

// WriteCSV persists a table as dir/fileName, creating dir if needed. The file
// is written next to its destination and renamed into place, so readers never
// observe a partial file.
func WriteCSV(dir, fileName string, table *frame.Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	tmp, err := os.CreateTemp(dir, "."+fileName+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := frame.WriteCSV(tmp, table); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return path, nil
}
