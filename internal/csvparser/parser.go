// =============================================================================
// XLSX Report Engine - CSV Parser Module
// =============================================================================
//
// Some point-of-sale exports arrive as CSV instead of .xlsx. This module reads
// them into plain string records, which xlsxparser then types by content, so
// every aggregator sees the same sheet shape regardless of the upload format.
//
// FEATURES:
//   - Different delimiters (comma, semicolon, pipe, tab)
//   - Legacy single-byte encodings (Windows-1258 for Vietnamese, 1252, Latin-1)
//   - UTF-8 byte-order-mark removal
//   - Ragged rows and lazy quotes
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Read parses a CSV file into records; the first record is the header row.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding from the main configuration.
//
// RETURNS:
//   - The records, one slice per line.
//   - An error if the file cannot be read, decoded or parsed.
func Read(filePath string, settings config.CSVSettings) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := Parse(file, settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return records, nil
}

// Parse reads CSV records from r.
func Parse(r io.Reader, settings config.CSVSettings) ([][]string, error) {
	decoder, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(transform.NewReader(r, decoder))
	if err := skipBOM(reader); err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	csvReader := csv.NewReader(reader)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	return records, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) error {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	case "", ",", "comma":
		reader.Comma = ','
	default:
		runes := []rune(settings.Delimiter)
		if len(runes) != 1 {
			return fmt.Errorf("unsupported CSV delimiter %q", settings.Delimiter)
		}
		reader.Comma = runes[0]
	}

	// Exports are not consistent about trailing empty columns.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return nil
}

// decoderFor maps an encoding name to a decoder.
func decoderFor(name string) (transform.Transformer, error) {
	var enc encoding.Encoding
	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "", "UTF-8", "UTF8":
		return encoding.Nop.NewDecoder(), nil
	case "UTF-16", "UTF-16LE":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "WINDOWS-1258", "CP1258":
		enc = charmap.Windows1258
	case "WINDOWS-1252", "CP1252":
		enc = charmap.Windows1252
	case "ISO-8859-1", "LATIN-1", "LATIN1":
		enc = charmap.ISO8859_1
	default:
		return nil, fmt.Errorf("unsupported CSV encoding %q", name)
	}
	return enc.NewDecoder(), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(r *bufio.Reader) error {
	head, err := r.Peek(len(utf8BOM))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = r.Discard(len(utf8BOM))
		return err
	}
	return nil
}
