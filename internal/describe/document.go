package describe

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"autosort/internal/textutil"
)

// DefaultDocumentTextLimit bounds the extracted text used as a label.
const DefaultDocumentTextLimit = 100

// BlankDocumentLabel is used for PDFs whose first page has no extractable text.
const BlankDocumentLabel = "pdf_document"

var (
	errEncrypted = errors.New("document is encrypted")
	errNoPages   = errors.New("document has no pages")
	errBlankText = errors.New("first page has no text")
)

// DocumentDescriber labels PDFs with the text of their first page.
type DocumentDescriber struct {
	counter   *Counter
	textLimit int
}

// NewDocumentDescriber returns a describer that keeps at most textLimit runes
// of first-page text. Fallback labels are numbered from counter.
func NewDocumentDescriber(counter *Counter, textLimit int) *DocumentDescriber {
	if textLimit <= 0 {
		textLimit = DefaultDocumentTextLimit
	}
	if counter == nil {
		counter = &Counter{}
	}
	return &DocumentDescriber{counter: counter, textLimit: textLimit}
}

// Describe extracts the whitespace-collapsed text of page one.
func (d *DocumentDescriber) Describe(ctx context.Context, path string) (string, error) {
	text, err := firstPageText(path)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text = textutil.CollapseWhitespace(text, d.textLimit)
	if text == "" {
		return "", errBlankText
	}
	return text, nil
}

// Fallback maps the failure to a label: encrypted documents become
// unable_to_read_N, empty ones empty_pdf_N, pages without text the fixed
// pdf_document, anything else pdf_document_N.
func (d *DocumentDescriber) Fallback(cause error) string {
	switch {
	case errors.Is(cause, errEncrypted):
		return fmt.Sprintf("unable_to_read_%d", d.counter.Next())
	case errors.Is(cause, errNoPages):
		return fmt.Sprintf("empty_pdf_%d", d.counter.Next())
	case errors.Is(cause, errBlankText):
		return BlankDocumentLabel
	default:
		return fmt.Sprintf("%s_%d", BlankDocumentLabel, d.counter.Next())
	}
}

func firstPageText(path string) (text string, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", fmt.Errorf("%w: %w", errEncrypted, err)
		}
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	// Open silently decrypts files whose user password is empty; those are
	// still reported as encrypted.
	if !reader.Trailer().Key("Encrypt").IsNull() {
		return "", errEncrypted
	}
	if reader.NumPage() < 1 {
		return "", errNoPages
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return "", errNoPages
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}
