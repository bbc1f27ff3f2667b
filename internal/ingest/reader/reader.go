package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ingestdomain "github.com/rollcallhq/rollcall/internal/ingest/domain"
	"github.com/xuri/excelize/v2"
)

// FileData is the outcome of reading one export file.
type FileData struct {
	Name        string
	Rows        []ingestdomain.RawRow
	Unparseable int
	Warnings    []string
}

// Discover lists export files in dir, sorted by name so repeated scans of
// an unchanged directory process files in the same order. Hidden files and
// spreadsheet lock files are skipped.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv", ".xlsx":
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile parses one export file into raw rows. The first row is the
// header; data row numbers start at 1. Cell values are kept verbatim.
func ReadFile(ctx context.Context, path string) (*FileData, error) {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(ctx, path, name)
	default:
		return readCSV(ctx, path, name)
	}
}

func readCSV(ctx context.Context, path, name string) (*FileData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	data := &FileData{Name: name}
	var headers []string
	rowNum := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if headers == nil {
				return nil, fmt.Errorf("read header: %w", err)
			}
			rowNum++
			data.Unparseable++
			data.Warnings = append(data.Warnings,
				fmt.Sprintf("%s row %d: skipped (%s)", name, rowNum, ingestdomain.SkipReasonUnparseable))
			continue
		}
		if headers == nil {
			headers = sanitizeHeaders(record)
			continue
		}
		rowNum++
		data.Rows = append(data.Rows, assembleRow(name, rowNum, headers, record))
	}
	if headers == nil {
		return nil, fmt.Errorf("%s: no header row", name)
	}
	return data, nil
}

func readXLSX(ctx context.Context, path, name string) (*FileData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: no sheets", name)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := &FileData{Name: name}
	var headers []string
	rowNum := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := rows.Columns()
		if err != nil {
			if headers == nil {
				return nil, fmt.Errorf("read header: %w", err)
			}
			rowNum++
			data.Unparseable++
			data.Warnings = append(data.Warnings,
				fmt.Sprintf("%s row %d: skipped (%s)", name, rowNum, ingestdomain.SkipReasonUnparseable))
			continue
		}
		if headers == nil {
			headers = sanitizeHeaders(cells)
			continue
		}
		rowNum++
		data.Rows = append(data.Rows, assembleRow(name, rowNum, headers, cells))
	}
	if headers == nil {
		return nil, fmt.Errorf("%s: no header row", name)
	}
	return data, nil
}

// sanitizeHeaders strips the UTF-8 BOM from the first column and names
// blank headers column_<n> so their cells survive into the raw map.
func sanitizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		if i == 0 {
			h = strings.TrimPrefix(h, "﻿")
		}
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

// assembleRow pairs cells with headers. Extra cells beyond the header row
// get synthetic column_<n> names; a duplicate header keeps the last cell,
// matching how spreadsheet exports overwrite repeated columns.
func assembleRow(source string, rowNum int, headers []string, cells []string) ingestdomain.RawRow {
	rowHeaders := headers
	if len(cells) > len(headers) {
		rowHeaders = make([]string, len(headers), len(cells))
		copy(rowHeaders, headers)
		for i := len(headers); i < len(cells); i++ {
			rowHeaders = append(rowHeaders, fmt.Sprintf("column_%d", i+1))
		}
	}

	values := make(map[string]string, len(cells))
	for i, cell := range cells {
		values[rowHeaders[i]] = cell
	}

	return ingestdomain.RawRow{
		SourceFile: source,
		RowNum:     rowNum,
		Headers:    rowHeaders,
		Values:     values,
	}
}
