package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// CountPDFPages returns the page count from the PDF page tree.
func CountPDFPages(data []byte) (int, error) {
	reader := bytes.NewReader(data)

	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages := pdfReader.NumPage()
	if numPages < 1 {
		return 0, fmt.Errorf("PDF has no pages")
	}

	return numPages, nil
}
