// Package importer extracts plain text from uploaded price lists so the
// extraction agent can read them.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// MaxTextLength caps what is sent to the model, in characters.
const MaxTextLength = 15000

var ErrUnsupportedFormat = errors.New("format de fichier non supporté")

// SupportedExtensions lists the accepted file extensions.
var SupportedExtensions = []string{".csv", ".xlsx", ".pdf", ".txt"}

// ExtractText dispatches on the file extension and truncates the result.
func ExtractText(fileName string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		text, err = fromCSV(data)
	case ".xlsx":
		text, err = fromXLSX(data)
	case ".pdf":
		text, err = fromPDF(data)
	case ".txt":
		text = strings.ToValidUTF8(string(data), "")
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", err
	}
	return Truncate(strings.TrimSpace(text), MaxTextLength), nil
}

// Truncate keeps at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func fromCSV(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var b strings.Builder
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("lecture csv: %w", err)
		}
		writeRow(&b, record)
	}
	return b.String(), nil
}

// sniffDelimiter picks ';' for French exports, ',' otherwise.
func sniffDelimiter(data []byte) rune {
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

func fromXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("lecture xlsx: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("lecture feuille %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		b.WriteString("# " + sheet + "\n")
		for _, row := range rows {
			writeRow(&b, row)
		}
	}
	return b.String(), nil
}

func fromPDF(data []byte) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("lecture pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("lecture pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extraction pdf: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(plain, 4*MaxTextLength)); err != nil {
		return "", fmt.Errorf("extraction pdf: %w", err)
	}
	return strings.ToValidUTF8(buf.String(), ""), nil
}

func writeRow(b *strings.Builder, cells []string) {
	kept := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return
	}
	b.WriteString(strings.Join(kept, " | "))
	b.WriteByte('\n')
}
