package fetcher

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// toUTF8 decodes body using the charset declared in contentType, a BOM or
// an HTML meta tag, falling back to sniffing. Invalid sequences left after
// decoding are replaced with U+FFFD.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}

	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	return bytes.ToValidUTF8(decoded, []byte("�")), nil
}
