package store

import "testing"

func TestDecodePayload(t *testing.T) {
	got, err := decodePayload([]byte(`{"price":100}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["price"].(float64) != 100 {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestDecodePayloadEmpty(t *testing.T) {
	got, err := decodePayload(nil)
	if err != nil {
		t.Fatalf("decode nil: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil payload, got %v", got)
	}
}

func TestDecodePayloadCorruptSurfacesError(t *testing.T) {
	if _, err := decodePayload([]byte(`{"price":`)); err == nil {
		t.Fatal("expected decode error for truncated json")
	}
}
