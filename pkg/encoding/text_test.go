package encoding

import (
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestToUTF8(t *testing.T) {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(`{"parent":"block/cube"}`))
	if err != nil {
		t.Fatal(err)
	}
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(`{"a":"é"}`))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte(`{"a":1}`), `{"a":1}`},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, `{"a":1}`...), `{"a":1}`},
		{"utf16le bom", utf16le, `{"parent":"block/cube"}`},
		{"utf16be bom", utf16be, `{"a":"é"}`},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTF8(tt.in)
			if err != nil {
				t.Fatalf("ToUTF8: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ToUTF8 = %q, want %q", got, tt.want)
			}
		})
	}
}
