// Package canon implements the Canonical ABI memory representation of the
// value shapes used by the command registry.
//
// A value tree (Value) is first bound to its WIT type by Freeze, producing a
// Node that carries every size, alignment, offset and discriminant. One walk
// over that node then drives each output:
//
//	ImageBuilder  static data-segment bytes, string table first
//	Emitter       wasm store instructions relative to a base local
//	Lower         writes into a live guest memory through an Allocator
//
// Lift reads values back out of memory.
//
// Layout rules follow the Canonical ABI: strings and lists are (ptr, len)
// pairs of size 8 and alignment 4; records align each field and pad to
// their own alignment; options, results, variants and enums store a
// discriminant followed by the payload at the largest case alignment.
// Variants and enums with more than MaxCases cases are rejected so every
// discriminant is a single byte.
package canon
