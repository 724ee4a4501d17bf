package decoder

import (
	"io"

	"golang-stock-recommender/pkg/logger"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// GBKDecoder converts GBK encoded payloads to UTF-8. The Sina quote and
// suggest endpoints still serve GBK.
type GBKDecoder struct {
	logger *logger.Logger
}

// NewGBKDecoder creates a new GBKDecoder.
func NewGBKDecoder(log *logger.Logger) *GBKDecoder {
	return &GBKDecoder{logger: log}
}

// Decode reads the full body and returns it decoded as UTF-8.
func (d *GBKDecoder) Decode(r io.Reader) (string, error) {
	decoded, err := io.ReadAll(transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// DecodeBytes decodes a GBK byte slice to a UTF-8 string.
func (d *GBKDecoder) DecodeBytes(b []byte) (string, error) {
	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
