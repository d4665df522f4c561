package outputbounder

import "testing"

func TestBoundNoTruncation(t *testing.T) {
	clipped, truncated, total := Bound("hello", 10)
	if truncated || clipped != "hello" || total != 5 {
		t.Fatalf("got %q %v %d", clipped, truncated, total)
	}
}

func TestBoundExactBoundary(t *testing.T) {
	clipped, truncated, total := Bound("hello", 5)
	if truncated || clipped != "hello" || total != 5 {
		t.Fatalf("got %q %v %d", clipped, truncated, total)
	}
}

func TestBoundOneByteShort(t *testing.T) {
	clipped, truncated, total := Bound("hello", 4)
	if !truncated || clipped != "hell" || total != 5 {
		t.Fatalf("got %q %v %d", clipped, truncated, total)
	}
}

func TestBoundRespectsRuneBoundary(t *testing.T) {
	s := "a€b" // 'a' (1 byte) + '€' (3 bytes) + 'b' (1 byte) = 5 bytes
	clipped, truncated, total := Bound(s, 3)
	if !truncated || total != 5 {
		t.Fatalf("got %q %v %d", clipped, truncated, total)
	}
	// Cap of 3 lands inside the 3-byte rune; must back off to the rune start,
	// i.e. keep only "a" (1 byte), not an invalid partial sequence.
	if clipped != "a" {
		t.Fatalf("expected clip to back off to rune boundary, got %q", clipped)
	}
}

func TestBoundBytesExact(t *testing.T) {
	b := []byte{0x00, 0x01, 0x02, 0x03}
	clipped, truncated, total := BoundBytes(b, 2)
	if !truncated || total != 4 || len(clipped) != 2 {
		t.Fatalf("got %v %v %d", clipped, truncated, total)
	}
}
