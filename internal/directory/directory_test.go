package directory

import (
	"fmt"
	"strings"
	"testing"
)

func TestCreateGeneratesDistinctUnambiguousCodes(t *testing.T) {
	d := New()
	seen := map[string]bool{}
	for i := 0; i < 10000; i++ {
		entry := d.Create(fmt.Sprintf("room-%d", i))
		if len(entry.Code) != codeLength {
			t.Fatalf("code %q length = %d", entry.Code, len(entry.Code))
		}
		if strings.ContainsAny(entry.Code, "0O1I") {
			t.Fatalf("code %q contains ambiguous character", entry.Code)
		}
		if seen[entry.Code] {
			t.Fatalf("duplicate code %q after %d rooms", entry.Code, i)
		}
		seen[entry.Code] = true
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	d := New()
	first := d.Create("room-1")
	second := d.Create("room-1")
	if first != second {
		t.Fatal("second create returned a different entry")
	}
	if first.Code != second.Code {
		t.Fatalf("code changed: %q != %q", first.Code, second.Code)
	}
}

func TestLookupByCodeNormalizes(t *testing.T) {
	d := New()
	entry := d.Create("room-1")

	formatted := FormatCode(entry.Code)
	if !strings.Contains(formatted, "-") {
		t.Fatalf("formatted code %q missing separator", formatted)
	}
	if got := d.GetByCode(formatted); got == nil || got.RoomID != "room-1" {
		t.Fatalf("lookup by formatted code = %+v", got)
	}
	if got := d.GetByCode(strings.ToLower(entry.Code)); got == nil {
		t.Fatal("lookup by lower-case code failed")
	}
	if got := d.GetByCode(" " + entry.Code + " "); got == nil {
		t.Fatal("lookup with whitespace failed")
	}
}

func TestSetTokenReindexesLookup(t *testing.T) {
	d := New()
	entry := d.Create("room-1")
	code := entry.Code

	d.SetToken("room-1", "tok-a")
	if got := d.GetByToken("tok-a"); got == nil || got.RoomID != "room-1" {
		t.Fatalf("lookup by first token = %+v", got)
	}

	d.SetToken("room-1", "tok-b")
	if got := d.GetByToken("tok-a"); got != nil {
		t.Fatal("stale token still indexed")
	}
	if got := d.GetByToken("tok-b"); got == nil {
		t.Fatal("new token not indexed")
	}
	if entry.Code != code {
		t.Fatalf("code changed on token update: %q != %q", entry.Code, code)
	}
}

func TestSetTokenUnknownRoom(t *testing.T) {
	d := New()
	if got := d.SetToken("absent", "tok"); got != nil {
		t.Fatalf("set token on unknown room = %+v", got)
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"abc-def": "ABCDEF",
		"AB2 34C": "AB234C",
		"a0o1ibc": "ABC",
	}
	for in, want := range cases {
		if got := NormalizeCode(in); got != want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", in, got, want)
		}
	}
}
