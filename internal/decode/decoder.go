// internal/decode/decoder.go
package decode

import "context"

// Content is the normalized output of decoding one document. PDFs and
// images yield Text and optionally Tables, spreadsheets yield Sheets,
// JSON documents pass through as Raw.
type Content struct {
	Text   string                `json:"text,omitempty"`
	Tables [][]string            `json:"tables,omitempty"`
	Sheets map[string][][]string `json:"sheets,omitempty"`
	Raw    []byte                `json:"raw,omitempty"`
}

// HasTables reports whether table extraction produced anything usable.
func (c *Content) HasTables() bool {
	return len(c.Tables) > 0
}

// Decoder turns a raw document file into normalized content.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Content, error)
}
