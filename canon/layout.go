package canon

import (
	"math"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/RAKUDEJI/wacli/errors"
)

// MaxCases is the largest case count accepted for variants and enums, so
// every discriminant this package writes fits in one byte.
const MaxCases = 256

// Info is the Canonical ABI layout of a type.
type Info struct {
	// Offsets holds field offsets for records and tuples, in order.
	Offsets []uint32
	Size    uint32
	Align   uint32
	// DiscSize and PayloadOffset describe option, result, variant and enum.
	DiscSize      uint32
	PayloadOffset uint32
}

// Calculator computes and caches layouts.
type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{cache: make(map[*wit.TypeDef]Info)}
}

// Layout computes the layout of t with a fresh calculator.
func Layout(t wit.Type) (Info, error) {
	return NewCalculator().Calculate(t)
}

// Calculate returns the layout of t. It fails when a size leaves the 32-bit
// address range or a variant has more than MaxCases cases.
func (c *Calculator) Calculate(t wit.Type) (Info, error) {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}, nil
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}, nil
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}, nil
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}, nil
	case wit.String:
		return Info{Size: 8, Align: 4}, nil
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{}, errors.Unsupported(errors.PhaseLayout, "layout of "+TypeName(t))
	}
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) (Info, error) {
	if cached, ok := c.cache[t]; ok {
		return cached, nil
	}

	var (
		info Info
		err  error
	)
	switch kind := t.Kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			types[i] = f.Type
		}
		info, err = c.calculateFields(types)
	case *wit.Tuple:
		info, err = c.calculateFields(kind.Types)
	case *wit.Variant:
		types := make([]wit.Type, len(kind.Cases))
		for i, cs := range kind.Cases {
			types[i] = cs.Type
		}
		info, err = c.calculateCases(types)
	case *wit.Enum:
		info, err = c.calculateCases(make([]wit.Type, len(kind.Cases)))
	case *wit.Option:
		info, err = c.calculateCases([]wit.Type{nil, kind.Type})
	case *wit.Result:
		info, err = c.calculateCases([]wit.Type{kind.OK, kind.Err})
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	case *wit.Flags:
		info = calculateFlags(len(kind.Flags))
	case wit.Type:
		info, err = c.Calculate(kind)
	default:
		err = errors.Unsupported(errors.PhaseLayout, "layout of "+TypeName(t))
	}
	if err != nil {
		return Info{}, err
	}

	c.cache[t] = info
	return info, nil
}

func (c *Calculator) calculateFields(types []wit.Type) (Info, error) {
	if len(types) == 0 {
		return Info{Size: 0, Align: 1}, nil
	}

	offsets := make([]uint32, len(types))
	maxAlign := uint32(1)
	offset := uint64(0)

	for i, typ := range types {
		fl, err := c.Calculate(typ)
		if err != nil {
			return Info{}, err
		}
		offset = alignTo64(offset, fl.Align)
		offsets[i] = uint32(offset)
		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		offset += uint64(fl.Size)
		if offset > math.MaxUint32 {
			return Info{}, errors.Overflow(errors.PhaseLayout, nil, "record size")
		}
	}

	size := alignTo64(offset, maxAlign)
	if size > math.MaxUint32 {
		return Info{}, errors.Overflow(errors.PhaseLayout, nil, "record size")
	}
	return Info{Size: uint32(size), Align: maxAlign, Offsets: offsets}, nil
}

// calculateCases lays out a discriminated union. A nil entry is a case
// without payload.
func (c *Calculator) calculateCases(cases []wit.Type) (Info, error) {
	if len(cases) > MaxCases {
		return Info{}, errors.Capacity(errors.PhaseLayout, nil, "case", len(cases), MaxCases)
	}
	discSize := DiscriminantSize(len(cases))

	maxAlign := discSize
	maxSize := uint32(0)
	for _, typ := range cases {
		if typ == nil {
			continue
		}
		cl, err := c.Calculate(typ)
		if err != nil {
			return Info{}, err
		}
		if cl.Align > maxAlign {
			maxAlign = cl.Align
		}
		if cl.Size > maxSize {
			maxSize = cl.Size
		}
	}

	payload := alignTo64(uint64(discSize), maxAlign)
	size := alignTo64(payload+uint64(maxSize), maxAlign)
	if size > math.MaxUint32 {
		return Info{}, errors.Overflow(errors.PhaseLayout, nil, "variant size")
	}
	return Info{
		Size:          uint32(size),
		Align:         maxAlign,
		DiscSize:      discSize,
		PayloadOffset: uint32(payload),
	}, nil
}

func calculateFlags(n int) Info {
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	default:
		return Info{Size: uint32((n + 31) / 32 * 4), Align: 4}
	}
}

// DiscriminantSize returns the byte width of a discriminant for n cases.
func DiscriminantSize(n int) uint32 {
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	default:
		return 4
	}
}

// AlignTo rounds offset up to a power-of-two alignment.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

func alignTo64(offset uint64, align uint32) uint64 {
	if align == 0 {
		return offset
	}
	a := uint64(align)
	return (offset + a - 1) &^ (a - 1)
}

// TypeName renders t in WIT syntax for diagnostics. Named definitions are
// printed structurally.
func TypeName(t wit.Type) string {
	switch typ := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.Record:
			names := make([]string, len(kind.Fields))
			for i, f := range kind.Fields {
				names[i] = f.Name
			}
			return "record{" + strings.Join(names, ", ") + "}"
		case *wit.Tuple:
			return "tuple<" + joinTypes(kind.Types) + ">"
		case *wit.Variant:
			names := make([]string, len(kind.Cases))
			for i, cs := range kind.Cases {
				names[i] = cs.Name
			}
			return "variant{" + strings.Join(names, ", ") + "}"
		case *wit.Enum:
			names := make([]string, len(kind.Cases))
			for i, cs := range kind.Cases {
				names[i] = cs.Name
			}
			return "enum{" + strings.Join(names, ", ") + "}"
		case *wit.Option:
			return "option<" + TypeName(kind.Type) + ">"
		case *wit.Result:
			return "result<" + TypeName(kind.OK) + ", " + TypeName(kind.Err) + ">"
		case *wit.List:
			return "list<" + TypeName(kind.Type) + ">"
		case *wit.Flags:
			return "flags"
		case wit.Type:
			return TypeName(kind)
		}
	}
	return "unknown"
}

func joinTypes(types []wit.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = TypeName(t)
	}
	return strings.Join(parts, ", ")
}
