package domain

import (
	"testing"
)

// FuzzParseAddress checks that parsing never panics and that accepted
// addresses round-trip through their hex form.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("0xf25726eae1221097469EcD7C741f7e206520A5dd")
	f.Add("0x")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		again, err := ParseAddress(addr.Hex())
		if err != nil {
			t.Fatalf("accepted address failed round-trip: %v", err)
		}
		if again != addr {
			t.Fatal("round-trip changed address")
		}
	})
}

// FuzzParseActorID checks that accepted ids round-trip through String.
func FuzzParseActorID(f *testing.F) {
	f.Add("0")
	f.Add("300")
	f.Add("18446744073709551615")
	f.Add("-1")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseActorID(input)
		if err != nil {
			return
		}
		again, err := ParseActorID(id.String())
		if err != nil || again != id {
			t.Fatalf("round-trip failed for %q", input)
		}
	})
}
