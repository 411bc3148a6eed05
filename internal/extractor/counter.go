package extractor

import (
	"fmt"
	"strings"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeTXT  = "text/plain"

	DefaultWordsPerPage = 250
)

// PageCounter reports how many billable pages a staged file has.
type PageCounter interface {
	CountPages(data []byte, contentType string) (int, error)
}

type Counter struct {
	WordsPerPage int
}

func NewCounter() *Counter {
	return &Counter{WordsPerPage: DefaultWordsPerPage}
}

func (c *Counter) CountPages(data []byte, contentType string) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty file")
	}

	switch {
	case contentType == ContentTypePDF:
		return CountPDFPages(data)
	case IsDOCXContentType(contentType):
		return CountDOCXPages(data, c.WordsPerPage)
	case IsTextContentType(contentType):
		text, err := DecodeTXT(data)
		if err != nil {
			return 0, err
		}
		return estimatePages(text, c.WordsPerPage), nil
	case strings.HasPrefix(contentType, "image/"):
		// a scanned page or photo of a document
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported content type %q", contentType)
	}
}

// IsDOCXContentType checks if the content type is a DOCX file
// Handles various DOCX MIME type variations
func IsDOCXContentType(contentType string) bool {
	switch contentType {
	case ContentTypeDOCX,
		"application/vnd.openxmlformats-officedocument.wordprocessingml",
		"application/docx",
		"application/x-docx":
		return true
	}
	return false
}

func IsTextContentType(contentType string) bool {
	switch contentType {
	case ContentTypeTXT, "text/txt", "application/txt", "application/x-txt":
		return true
	}
	return false
}

func estimatePages(text string, wordsPerPage int) int {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}

	words := len(strings.Fields(text))
	pages := (words + wordsPerPage - 1) / wordsPerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}
