package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/eb-examples/ebgov/pipeline"
)

// ReadTable loads a CSV artifact. The first record is the header; short rows
// are padded by pipeline.Cell at access time.
func ReadTable(a Artifact) (*pipeline.Table, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, a.missing()
		}
		return nil, fmt.Errorf("opening %s: %w", a.Name, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &pipeline.SchemaError{Table: a.Name, Missing: []string{"<header>"}}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", a.Name, err)
	}
	t := &pipeline.Table{Name: a.Name, Columns: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row: %w", a.Name, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadOptionalTable loads a CSV artifact, returning nil without error when the
// file does not exist.
func ReadOptionalTable(a Artifact) (*pipeline.Table, error) {
	t, err := ReadTable(a)
	if errors.Is(err, pipeline.ErrMissingArtifact) {
		return nil, nil
	}
	return t, err
}

// EncodeCSV renders a header and rows as CSV bytes.
func EncodeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// FileDigest returns the hex SHA-256 of a file's contents.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
