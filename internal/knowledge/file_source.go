package knowledge

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"kb-chatbot-go/internal/model"

	"github.com/xuri/excelize/v2"
)

// CSVSource 从 UTF-8 CSV 文件读取知识库。
type CSVSource struct {
	path string
}

func (s *CSVSource) Identity() string { return s.path }
func (s *CSVSource) Path() string     { return s.path }

func (s *CSVSource) Read(ctx context.Context) ([]model.KBEntry, error) {
	data, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	return parseCSV(bytes.NewReader(data))
}

// XLSXSource 从 Excel 文件的第一个工作表读取知识库。
type XLSXSource struct {
	path string
}

func (s *XLSXSource) Identity() string { return s.path }
func (s *XLSXSource) Path() string     { return s.path }

func (s *XLSXSource) Read(ctx context.Context) ([]model.KBEntry, error) {
	data, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	return parseXLSX(bytes.NewReader(data))
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}
	return data, nil
}

func parseCSV(r io.Reader) ([]model.KBEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return entriesFromRows(rows)
}

func parseXLSX(r io.Reader) ([]model.KBEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMissingColumn)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return entriesFromRows(rows)
}
