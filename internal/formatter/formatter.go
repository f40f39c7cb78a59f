// package formatter assembles rendered slide decks into deliverables (PDF, PNG files, outline JSON)
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/shared"
)

// Page geometry in points. Every slide image fills one full landscape page.
const (
	pageWidth  = 1920.0
	pageHeight = 1080.0
)

// checkComplete verifies every slide carries a rendered image before assembly.
func checkComplete(slides []*models.SlideRecord) error {
	if len(slides) == 0 {
		return fmt.Errorf("%w: deck is empty", shared.ErrDeckIncomplete)
	}

	var pending []string
	for _, slide := range slides {
		if slide.Status != models.StatusDone || slide.Image == nil {
			pending = append(pending, fmt.Sprintf("%d", slide.PageNumber))
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("%w: slides %s have no rendered image", shared.ErrDeckIncomplete, strings.Join(pending, ", "))
	}
	return nil
}

// imageType maps a MIME type to the image type string the PDF writer expects.
func imageType(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return "PNG"
	}
}

// ExportToPDF assembles the deck into a PDF document, one full-bleed slide
// image per 1920x1080 landscape page, in page order.
//
// Fails with [shared.ErrDeckIncomplete] unless every slide is done.
func ExportToPDF(slides []*models.SlideRecord) ([]byte, error) {
	if err := checkComplete(slides); err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for _, slide := range slides {
		pdf.AddPage()

		name := fmt.Sprintf("slide-%d", slide.PageNumber)
		opts := fpdf.ImageOptions{ImageType: imageType(slide.Image.MimeType)}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(slide.Image.Data))
		pdf.ImageOptions(name, 0, 0, pageWidth, pageHeight, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePDFExport assembles the deck and writes it to path.
func WritePDFExport(slides []*models.SlideRecord, path string) (string, error) {
	if path == "" {
		path = "slidekit-presentation.pdf"
	}

	data, err := ExportToPDF(slides)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write PDF file: %w", err)
	}

	return path, nil
}

// imageExtension maps a MIME type to a file extension for per-slide export.
func imageExtension(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

// ImageExportResult contains the files created by WriteImageExport.
type ImageExportResult struct {
	Directory string
	Files     []string
}

// WriteImageExport writes each rendered slide image as its own file in
// outputDir, named slide-{page}.{ext}. Slides without an image are skipped.
func WriteImageExport(slides []*models.SlideRecord, outputDir string) (*ImageExportResult, error) {
	if outputDir == "" {
		outputDir = "slides"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &ImageExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	for _, slide := range slides {
		if slide.Image == nil {
			continue
		}
		name := fmt.Sprintf("slide-%d.%s", slide.PageNumber, imageExtension(slide.Image.MimeType))
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, slide.Image.Data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write image file: %w", err)
		}
		result.Files = append(result.Files, path)
	}

	return result, nil
}

// ToOutlineJSON generates a JSON representation of the outline (without image data).
func ToOutlineJSON(slides []*models.SlideRecord) ([]byte, error) {
	return shared.MarshalJSON(slides, true)
}

// ExportToText renders the outline as readable plain text for review.
func ExportToText(slides []*models.SlideRecord) []byte {
	var buf bytes.Buffer

	for _, slide := range slides {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", slide.PageNumber, slide.Title, slide.Status))
		for _, point := range slide.BulletPoints {
			buf.WriteString(fmt.Sprintf("   - %s\n", point))
		}
		if slide.VisualPrompt != "" {
			buf.WriteString(fmt.Sprintf("   Visual: %s\n", slide.VisualPrompt))
		}
		if slide.LastError != "" {
			buf.WriteString(fmt.Sprintf("   Error: %s\n", slide.LastError))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}
