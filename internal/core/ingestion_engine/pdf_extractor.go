package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/markdave123-py/Synopsis/internal/core"
)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// extractPDF reads pages in order and joins their text with "\n". A page with
// no content stream contributes an empty line.
func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some corrupt cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &core.MalformedDocumentError{ContentType: MimePDF, Err: fmt.Errorf("pdf parser panic: %v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &core.MalformedDocumentError{ContentType: MimePDF, Err: err}
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			return "", &core.MalformedDocumentError{ContentType: MimePDF, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, txt)
	}
	return strings.Join(pages, "\n"), nil
}
