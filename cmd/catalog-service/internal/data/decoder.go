package data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"moviecatalog/cmd/catalog-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

// xlsx 文件是 zip 包
var zipMagic = []byte("PK\x03\x04")

var errEmptyFile = errors.New("empty file")

// SpreadsheetDecoder decodes the first sheet of an xlsx workbook, or a CSV
// file when the upload is not a zip container. The first row is the header;
// blank rows and empty cells are skipped.
type SpreadsheetDecoder struct{}

// NewSpreadsheetDecoder 创建表格解析器
func NewSpreadsheetDecoder() *SpreadsheetDecoder {
	return &SpreadsheetDecoder{}
}

// Decode 解析文件
func (d *SpreadsheetDecoder) Decode(data []byte) ([]domain.Row, error) {
	if len(data) == 0 {
		return nil, errEmptyFile
	}
	if bytes.HasPrefix(data, zipMagic) {
		return d.decodeXLSX(data)
	}
	return d.decodeCSV(data)
}

func (d *SpreadsheetDecoder) decodeXLSX(data []byte) ([]domain.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(grid) == 0 {
		return []domain.Row{}, nil
	}

	header := grid[0]
	rows := make([]domain.Row, 0, len(grid)-1)
	for r := 1; r < len(grid); r++ {
		row := domain.Row{}
		for c, raw := range grid[r] {
			if c >= len(header) || header[c] == "" || raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, err
			}
			row[header[c]] = xlsxValue(typ, raw)
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// xlsxValue types a raw cell the way its cell type says.
func xlsxValue(typ excelize.CellType, raw string) interface{} {
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, ok := parseNumber(raw); ok {
			return f
		}
	}
	return raw
}

func (d *SpreadsheetDecoder) decodeCSV(data []byte) ([]domain.Row, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("not a workbook or utf-8 csv")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []domain.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := []domain.Row{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		row := domain.Row{}
		for c, raw := range record {
			if c >= len(header) || header[c] == "" || raw == "" {
				continue
			}
			row[header[c]] = csvValue(raw)
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func csvValue(raw string) interface{} {
	if f, ok := parseNumber(raw); ok {
		return f
	}
	switch strings.ToUpper(raw) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return raw
}

func parseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
