// package extract reads presentation source text out of user-supplied files.
//
// Plain text and Markdown pass through unchanged. PDF text is pulled with
// go-fitz; DOCX documents are unzipped and the body XML is walked for text runs.
package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/mkbridge/slidekit/internal/shared"
)

// FromFile reads the file at path and returns its text content. The format is
// chosen by extension: .txt and .md pass through, .pdf and .docx are parsed.
func FromFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read source file: %w", err)
		}
		return string(data), nil
	case ".pdf":
		return fromPDF(path)
	case ".docx":
		return fromDOCX(path)
	default:
		return "", fmt.Errorf("%w: %s (supported: .txt, .md, .pdf, .docx)", shared.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// fromPDF extracts the text of every page, joined by blank lines.
func fromPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", page+1, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", fmt.Errorf("%w: PDF contains no extractable text", shared.ErrInvalidInput)
	}
	return content, nil
}

// docx body XML: paragraphs (w:p) contain runs (w:r) containing text (w:t).
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

// fromDOCX unzips the document and concatenates paragraph text from the body.
func fromDOCX(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer reader.Close()

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("%w: DOCX is missing word/document.xml", shared.ErrInvalidInput)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document body: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}

	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document body: %w", err)
	}

	var b strings.Builder
	for _, para := range doc.Body.Paragraphs {
		for _, run := range para.Runs {
			b.WriteString(run.Text)
		}
		b.WriteString("\n")
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", fmt.Errorf("%w: DOCX contains no text", shared.ErrInvalidInput)
	}
	return content, nil
}
