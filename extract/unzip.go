package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// UnzipCSVs takes a byte slice of a zip file and returns the contents of every
// CSV file inside, keyed by file name without directory or extension.
func UnzipCSVs(zipData []byte) (map[string][]byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zip reader: %w", err)
	}

	files := make(map[string][]byte, len(zipReader.File))
	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() || !strings.EqualFold(path.Ext(file.Name), ".csv") {
			continue
		}

		content, err := readZipFile(file)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(path.Base(file.Name), path.Ext(file.Name))
		files[name] = content
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("expected at least one CSV file in the zip archive, but found none")
	}

	return files, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", file.Name, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", file.Name, err)
	}

	return content, nil
}
