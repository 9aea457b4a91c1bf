package internal

import (
	"encoding/base64"
	"testing"
)

// FuzzValidSessionID checks that every accepted identifier decodes to exactly
// 32 bytes and re-encodes to itself.
func FuzzValidSessionID(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	f.Add("../../../../../../../../../../../etc/passwd")
	f.Add("!!!not-base64!!!")
	if id, err := NewSessionID(); err == nil {
		f.Add(id)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if !ValidSessionID(input) {
			return
		}
		raw, err := base64.RawURLEncoding.DecodeString(input)
		if err != nil {
			t.Fatalf("accepted id %q does not decode: %v", input, err)
		}
		if len(raw) != sessionIDSize {
			t.Fatalf("accepted id %q decodes to %d bytes", input, len(raw))
		}
	})
}
