// Package encoding provides text encoding utilities for asset documents.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ToUTF8 returns document text as UTF-8 without a byte order mark. Text
// starting with a UTF-16 BOM (as written by some Windows editors) is
// transcoded; anything else is treated as UTF-8.
func ToUTF8(data []byte) ([]byte, error) {
	if !hasBOM(data) {
		return data, nil
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func hasBOM(data []byte) bool {
	if bytes.HasPrefix(data, utf8BOM) {
		return true
	}
	return len(data) >= 2 && (data[0] == 0xFE && data[1] == 0xFF || data[0] == 0xFF && data[1] == 0xFE)
}
