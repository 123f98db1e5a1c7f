package models

// Poster holds the raw bytes of a downloaded poster image.
type Poster struct {
	URL         string
	Content     []byte
	ContentType string // sniffed from the bytes, not taken from response headers
}
