package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rpattn/logstack/internal/domain"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", domain.ErrInvalidArgument)

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

const (
	prefixColumn     = "prefix"
	errorCountColumn = "error_count"
)

// parsedLine is one usable measurement from an uploaded file.
type parsedLine struct {
	line       int
	prefix     string
	errorCount int64
}

// lineError is one input line that could not be used.
type lineError struct {
	line int
	err  error
}

// parseResult separates usable measurements from rejected lines.
type parseResult struct {
	total   int
	lines   []parsedLine
	invalid []lineError
}

func (r *parseResult) accept(line int, prefix string, rawCount string) {
	r.total++
	if prefix == "" {
		r.invalid = append(r.invalid, lineError{line: line, err: errors.New("empty prefix")})
		return
	}
	count, err := strconv.ParseInt(strings.TrimSpace(rawCount), 10, 64)
	if err != nil {
		r.invalid = append(r.invalid, lineError{line: line, err: fmt.Errorf("invalid error count %q", rawCount)})
		return
	}
	if count < 0 {
		r.invalid = append(r.invalid, lineError{line: line, err: fmt.Errorf("negative error count %d", count)})
		return
	}
	r.lines = append(r.lines, parsedLine{line: line, prefix: prefix, errorCount: count})
}

func (r *parseResult) reject(line int, err error) {
	r.total++
	r.invalid = append(r.invalid, lineError{line: line, err: err})
}

// parseUpload picks a parser from the file extension. Anything that is not
// .csv or .xlsx is read as folded stacks.
func parseUpload(fileName string, payload []byte) (parseResult, error) {
	payload = bytes.TrimPrefix(payload, byteOrderMark)
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	case ".xls":
		return parseResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	default:
		return parseFoldedStacks(payload)
	}
}

// parseFoldedStacks reads lines of the form "frame;frame;frame count".
func parseFoldedStacks(payload []byte) (parseResult, error) {
	var result parseResult
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, " ")
		if idx < 0 {
			result.reject(lineNumber, errors.New("missing error count"))
			continue
		}
		result.accept(lineNumber, NormalizeStack(line[:idx]), line[idx+1:])
	}
	if err := scanner.Err(); err != nil {
		return parseResult{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return result, nil
}

// NormalizeStack turns a folded stack into a prefix path: frames separated
// by ";" become "/" segments and a leading "//" collapses to "/".
func NormalizeStack(stack string) string {
	prefix := strings.ReplaceAll(strings.TrimSpace(stack), ";", "/")
	if strings.HasPrefix(prefix, "//") {
		prefix = prefix[1:]
	}
	return prefix
}

func parseCSV(payload []byte) (parseResult, error) {
	csvReader := csv.NewReader(bytes.NewReader(payload))
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return parseResult{}, fmt.Errorf("%w: failed to read csv: %v", domain.ErrInvalidArgument, err)
	}
	return parseTable(records)
}

func parseExcel(payload []byte) (parseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return parseResult{}, fmt.Errorf("%w: failed to open xlsx: %v", domain.ErrInvalidArgument, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return parseResult{}, fmt.Errorf("%w: excel file has no sheets", domain.ErrInvalidArgument)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return parseResult{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return parseTable(rows)
}

// parseTable locates the prefix and error_count columns in the first
// non-empty row and reads every following row.
func parseTable(records [][]string) (parseResult, error) {
	headerIndex := -1
	for idx, row := range records {
		if len(cleanRow(row)) > 0 {
			headerIndex = idx
			break
		}
	}
	if headerIndex < 0 {
		return parseResult{}, fmt.Errorf("%w: no rows found in file", domain.ErrInvalidArgument)
	}

	prefixCol, countCol := -1, -1
	for col, header := range records[headerIndex] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case prefixColumn:
			prefixCol = col
		case errorCountColumn:
			countCol = col
		}
	}
	if prefixCol < 0 || countCol < 0 {
		return parseResult{}, fmt.Errorf("%w: header must contain %q and %q columns", domain.ErrInvalidArgument, prefixColumn, errorCountColumn)
	}

	var result parseResult
	for idx := headerIndex + 1; idx < len(records); idx++ {
		row := records[idx]
		if len(cleanRow(row)) == 0 {
			continue
		}
		lineNumber := idx + 1
		if prefixCol >= len(row) || countCol >= len(row) {
			result.reject(lineNumber, errors.New("row is missing columns"))
			continue
		}
		result.accept(lineNumber, strings.TrimSpace(row[prefixCol]), row[countCol])
	}
	return result, nil
}

func cleanRow(row []string) []string {
	cleaned := make([]string, 0, len(row))
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			cleaned = append(cleaned, value)
		}
	}
	return cleaned
}
