package core

import "context"

// DocumentExtractor turns a raw payload into plain text.
// The contentType decides the parsing strategy; an empty result is valid and
// means the document carried no text.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}
