package codec

import (
	"testing"
)

type roomBooked struct {
	Room int `json:"room" cbor:"1,keyasint"`
}

func TestRegistryResolvesRegisteredTypes(t *testing.T) {
	reg := NewRegistry()
	Register[roomBooked](reg, "room-booked")

	if !reg.Known("room-booked") {
		t.Fatalf("registered name unknown")
	}
	if name := reg.NameFor(roomBooked{Room: 1}); name != "room-booked" {
		t.Fatalf("NameFor = %q, want room-booked", name)
	}
	if name := reg.NameFor(&roomBooked{}); name != "room-booked" {
		t.Fatalf("NameFor on pointer = %q, want room-booked", name)
	}

	body, err := JSON{}.Marshal(roomBooked{Room: 7})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v, err := reg.Decode(JSON{}, "room-booked", body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := v.(*roomBooked)
	if !ok || got.Room != 7 {
		t.Fatalf("decoded %T %+v", v, v)
	}
}

func TestRegistryRejectsUnknownNames(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Decode(JSON{}, "nope", []byte("{}")); err == nil {
		t.Fatalf("want error for unregistered name")
	}
}

func TestUnregisteredTypeFallsBackToGoName(t *testing.T) {
	reg := NewRegistry()
	if name := reg.NameFor(roomBooked{}); name == "" {
		t.Fatalf("fallback name must not be empty")
	}
}

func TestCBORRoundTrip(t *testing.T) {
	reg := NewRegistry()
	Register[roomBooked](reg, "room-booked")

	body, err := CBOR{}.Marshal(roomBooked{Room: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v, err := reg.Decode(CBOR{}, "room-booked", body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.(*roomBooked).Room != 3 {
		t.Fatalf("cbor round trip mangled payload: %+v", v)
	}
}

func TestByName(t *testing.T) {
	if ByName("cbor").Name() != "cbor" {
		t.Fatalf("ByName(cbor) wrong codec")
	}
	if ByName("").Name() != "json" {
		t.Fatalf("default codec must be json")
	}
	if ByName("weird").Name() != "json" {
		t.Fatalf("unknown codec must fall back to json")
	}
}
