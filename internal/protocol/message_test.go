package protocol

import "testing"

func TestMessageReservedFieldAccessors(t *testing.T) {
	msg := Message{"type": "ping", "id": "req-9", "n": 3}
	if msg.Type() != "ping" {
		t.Fatalf("unexpected type: %q", msg.Type())
	}
	if msg.ID() != "req-9" {
		t.Fatalf("unexpected id: %q", msg.ID())
	}
	msg.SetID("req-10")
	if msg.ID() != "req-10" {
		t.Fatalf("set id not applied: %q", msg.ID())
	}
}

func TestMessageNonStringReservedFieldsReadEmpty(t *testing.T) {
	msg := Message{"type": 42, "id": true}
	if msg.Type() != "" {
		t.Fatalf("non-string type should read empty, got %q", msg.Type())
	}
	if msg.ID() != "" {
		t.Fatalf("non-string id should read empty, got %q", msg.ID())
	}
}

func TestNewIDUniqueAndNonEmpty(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || b == "" {
		t.Fatalf("empty id generated")
	}
	if a == b {
		t.Fatalf("duplicate ids: %q", a)
	}
}
