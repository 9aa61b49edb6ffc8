// Package codec handles payload serialization for stored chunks.
//
// A chunk carries its payload as opaque bytes plus a type name. The type
// name is resolved through a Registry populated at startup, so decoding
// never loads types dynamically:
//
//	reg := codec.NewRegistry()
//	codec.Register[RoomBooked](reg, "room-booked")
//
//	c := codec.JSON{}
//	body, _ := c.Marshal(RoomBooked{Room: 42})
//	v, _ := reg.Decode(c, "room-booked", body) // *RoomBooked
//
// JSON is the default codec; CBOR is the compact binary alternative.
package codec
