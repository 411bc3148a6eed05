package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type WordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    Body     `xml:"body"`
}

type Body struct {
	Paragraphs []Paragraph `xml:"p"`
}

type Paragraph struct {
	Runs []Run `xml:"r"`
}

type Run struct {
	Text string `xml:"t"`
}

// appProperties is docProps/app.xml, where Word records the page count it
// last laid out.
type appProperties struct {
	Pages int `xml:"Pages"`
}

// CountDOCXPages prefers the page count Word stored in docProps/app.xml
// and falls back to estimating from the body text.
func CountDOCXPages(data []byte, wordsPerPage int) (int, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	if raw, err := readZipEntry(zipReader, "docProps/app.xml"); err == nil {
		var props appProperties
		if xml.Unmarshal(raw, &props) == nil && props.Pages > 0 {
			return props.Pages, nil
		}
	}

	text, err := extractDOCXText(zipReader)
	if err != nil {
		return 0, err
	}

	return estimatePages(text, wordsPerPage), nil
}

func extractDOCXText(zipReader *zip.Reader) (string, error) {
	xmlData, err := readZipEntry(zipReader, "word/document.xml")
	if err != nil {
		return "", err
	}

	// Parse XML
	var doc WordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	// Extract text
	var textBuilder strings.Builder
	for _, para := range doc.Body.Paragraphs {
		for _, run := range para.Runs {
			textBuilder.WriteString(run.Text)
		}
		textBuilder.WriteString("\n")
	}

	extractedText := strings.TrimSpace(textBuilder.String())

	if extractedText == "" {
		return "", fmt.Errorf("no text could be extracted from DOCX")
	}

	return extractedText, nil
}

func readZipEntry(zipReader *zip.Reader, name string) ([]byte, error) {
	for _, file := range zipReader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%s not found in DOCX", name)
}
