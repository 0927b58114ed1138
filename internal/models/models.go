package models

import "time"

// FileMeta describes one file as reported by a remote file store.
type FileMeta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink,omitempty"`
}

// RawDocument is a downloaded payload handed to the extractor. It lives for a
// single request and is never persisted.
type RawDocument struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
}

// Chunk is one bounded slice of extracted text.
//
// Index: zero-based position; also the summarization order.
// Start: rune offset of the first character inside the source text.
// End:   rune offset one past the last character.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// ChunkSummary is the map-phase output for the chunk at Index.
type ChunkSummary struct {
	Index   int
	Summary string
}

// DocumentResult is one row of a batch run: either a summary or a failure.
type DocumentResult struct {
	File    FileMeta
	Summary string
	Err     error
}

// OK reports whether the document was summarized.
func (r DocumentResult) OK() bool { return r.Err == nil }

// SessionRecord is what the session store keeps per signed-in browser.
// AccessToken and RefreshToken hold sealed (encrypted) values, never plaintext.
type SessionRecord struct {
	ID           string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       int64 // token expiry, unix seconds; 0 when unknown
	CreatedAt    time.Time
}
