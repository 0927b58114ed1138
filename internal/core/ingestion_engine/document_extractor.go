package ingestion_engine

import (
	"context"
	"mime"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/markdave123-py/Synopsis/internal/core"
)

const (
	MimePDF   = "application/pdf"
	MimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePlain = "text/plain"

	mimeOctetStream = "application/octet-stream"
)

var supportedTypes = []string{MimePDF, MimeDOCX, MimePlain}

var _ core.DocumentExtractor = (*FormatExtractor)(nil)

// FormatExtractor dispatches on the normalized content type to one of the
// PDF, DOCX or plain-text readers.
type FormatExtractor struct{}

func NewFormatExtractor() *FormatExtractor {
	return &FormatExtractor{}
}

// Extract returns the document's text. An empty string with a nil error is a
// valid result: the document parsed but carried no text.
func (e *FormatExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ct := NormalizeContentType(contentType)
	switch ct {
	case MimePDF:
		return extractPDF(ctx, data)
	case MimeDOCX:
		return extractDOCX(data)
	case MimePlain:
		if !utf8.Valid(data) {
			return "", &core.MalformedDocumentError{ContentType: ct, Err: errInvalidUTF8}
		}
		return string(data), nil
	default:
		return "", &core.UnsupportedFormatError{ContentType: contentType}
	}
}

// NormalizeContentType lower-cases the media type and drops parameters such as
// "; charset=utf-8".
func NormalizeContentType(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// IsSupported reports whether Extract has a reader for contentType.
func IsSupported(contentType string) bool {
	ct := NormalizeContentType(contentType)
	for _, s := range supportedTypes {
		if s == ct {
			return true
		}
	}
	return false
}

func SupportedTypes() []string {
	out := make([]string, len(supportedTypes))
	copy(out, supportedTypes)
	return out
}

// ResolveContentType keeps a meaningful declared type and otherwise infers one
// from the file name. Object stores and browsers often send
// application/octet-stream for everything.
func ResolveContentType(declared, filename string) string {
	ct := NormalizeContentType(declared)
	if ct != "" && ct != mimeOctetStream {
		return ct
	}
	if filename == "" {
		return ct
	}
	return NormalizeContentType(docconv.MimeTypeByExtension(filename))
}
