// Package parser extracts per-page passages from uploaded documents.
package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"pdfchat/internal/models"
)

var (
	// ErrNotFound reports that an input artifact (usually the staging file
	// for an upload) went missing during extraction
	ErrNotFound = errors.New("document not found")

	// ErrLoad reports that extraction or parsing of the document failed;
	// the underlying cause is wrapped
	ErrLoad = errors.New("document load failed")
)

// Parse extracts passages from an uploaded document. The format is chosen
// from the extension of name. PDF pages, PPTX slides and spreadsheet sheets
// each become one passage; flat formats produce a single passage with page 1.
func Parse(name string, data []byte) ([]models.Passage, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return parsePDF(name, data)
	case ".docx":
		return parseDOCX(name, data)
	case ".pptx":
		return parsePPTX(name, data)
	case ".xlsx":
		return parseXLSX(name, data)
	case ".ods":
		return parseODS(name, data)
	case ".md", ".markdown":
		return parseMarkdown(name, data)
	case ".txt":
		return parseText(name, data)
	default:
		return nil, fmt.Errorf("%w: unsupported file format %q", ErrLoad, ext)
	}
}

// parsePDF stages the upload in a temp file for the pdf reader and removes
// it again on every return path.
func parsePDF(name string, data []byte) ([]models.Passage, error) {
	tmp, err := os.CreateTemp("", "pdfchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: stage upload: %w", ErrLoad, err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: stage upload: %w", ErrLoad, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: stage upload: %w", ErrLoad, err)
	}

	return parsePDFFile(name, path)
}

func parsePDFFile(name, path string) ([]models.Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: staging file %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %w", ErrLoad, err)
	}

	var passages []models.Passage
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: extract page %d: %w", ErrLoad, i, err)
		}
		passages = append(passages, models.Passage{
			Content: pageText,
			Page:    i,
			Source:  name,
		})
	}

	log.Debug().Str("source", name).Int("pages", len(passages)).Msg("parsed pdf")
	return passages, nil
}

func parseDOCX(name string, data []byte) ([]models.Passage, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: read docx: %w", ErrLoad, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = stripXMLTags(content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	return []models.Passage{{Content: content, Page: 1, Source: name}}, nil
}

func parsePPTX(name string, data []byte) ([]models.Passage, error) {
	f, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: read pptx: %w", ErrLoad, err)
	}

	var passages []models.Passage
	slide := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slide++
		slideText := extractTextFromXML(string(raw))
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		passages = append(passages, models.Passage{
			Content: slideText,
			Page:    slide,
			Source:  name,
		})
	}
	return passages, nil
}

func parseXLSX(name string, data []byte) ([]models.Passage, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: read xlsx: %w", ErrLoad, err)
	}

	var passages []models.Passage
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		passages = append(passages, models.Passage{
			Content: text.String(),
			Page:    sheetNum + 1,
			Source:  name,
		})
	}
	return passages, nil
}

func parseODS(name string, data []byte) ([]models.Passage, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: read ods: %w", ErrLoad, err)
	}
	defer f.Close()

	var passages []models.Passage
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		passages = append(passages, models.Passage{
			Content: text.String(),
			Page:    sheetNum + 1,
			Source:  name,
		})
	}
	return passages, nil
}

func parseText(name string, data []byte) ([]models.Passage, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []models.Passage{{Content: string(data), Page: 1, Source: name}}, nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// stripXMLTags drops any markup the docx library leaves in the raw content
func stripXMLTags(content string) string {
	var text strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			text.WriteRune('\n')
		case !inTag:
			text.WriteRune(r)
		}
	}
	return text.String()
}
