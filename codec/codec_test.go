package codec

import (
	"strings"
	"testing"
)

type meta struct {
	ContentType  string `json:"ct" msgpack:"ct" cbor:"1,keyasint"`
	CacheControl string `json:"cc" msgpack:"cc" cbor:"2,keyasint"`
}

func TestByNameRoundTrip(t *testing.T) {
	in := meta{ContentType: "image/png", CacheControl: "public, max-age=31536000"}
	for _, name := range []string{"", "msgpack", "cbor", "json"} {
		c, err := ByName[meta](name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%q encode: %v", name, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%q decode: %v", name, err)
		}
		if out != in {
			t.Fatalf("%q: got %+v want %+v", name, out, in)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName[meta]("gob"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestCBORDeterministic(t *testing.T) {
	c, err := NewCBOR[map[string]string](true)
	if err != nil {
		t.Fatal(err)
	}
	m := map[string]string{"b": "2", "a": "1", "c": "3"}
	first, _ := c.Encode(m)
	for i := 0; i < 10; i++ {
		again, _ := c.Encode(m)
		if string(again) != string(first) {
			t.Fatalf("deterministic encoding differs between runs")
		}
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	lc := Limit[meta]{Inner: JSON[meta]{}, MaxDecode: 8}
	b, err := lc.Encode(meta{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lc.Decode(b); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}

	lc.MaxDecode = 0
	if _, err := lc.Decode(b); err != nil {
		t.Fatalf("limit disabled should decode: %v", err)
	}
}

func TestDecodeCorruptNamesCodec(t *testing.T) {
	corrupt := map[string][]byte{
		"msgpack": {0xc1},
		"cbor":    {0xff},
		"json":    []byte("{"),
	}
	for name, b := range corrupt {
		c, err := ByName[meta](name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if _, err := c.Decode(b); err == nil || !strings.Contains(err.Error(), name+" decode") {
			t.Fatalf("%q: expected wrapped decode error, got %v", name, err)
		}
	}
}
