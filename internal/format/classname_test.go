package format

import "testing"

func TestDecodeClassName(t *testing.T) {
	b := []byte{'C', 0, 'l', 0, 's', 0, 's', 0}
	name, truncated := DecodeClassName(b, 8)
	if truncated {
		t.Fatalf("did not expect truncation")
	}
	if len(name) != 8 {
		t.Fatalf("unexpected length: %d", len(name))
	}
}

func TestDecodeClassNameZeroLength(t *testing.T) {
	name, truncated := DecodeClassName([]byte{1, 2, 3}, 0)
	if name != nil || truncated {
		t.Fatalf("expected nil/false for zero length, got %v %v", name, truncated)
	}
}

func TestDecodeClassNameOverrunsCell(t *testing.T) {
	b := []byte{'a', 0}
	name, truncated := DecodeClassName(b, 100)
	if !truncated {
		t.Fatalf("expected truncated result")
	}
	if len(name) != len(b) {
		t.Fatalf("expected all available bytes, got %d", len(name))
	}
}
