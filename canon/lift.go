package canon

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"go.bytecodealliance.org/wit"

	"github.com/RAKUDEJI/wacli/errors"
)

// MaxStringSize bounds strings read back from guest memory.
const MaxStringSize = 1 << 30

// MaxListLen bounds the element count of lists read back from guest memory.
const MaxListLen = 1 << 20

// Lift decodes a value of type t stored at addr with a fresh calculator.
func Lift(mem Memory, t wit.Type, addr uint32) (Value, error) {
	return NewCalculator().Lift(mem, t, addr)
}

// Lift decodes a value of type t stored at addr.
func (c *Calculator) Lift(mem Memory, t wit.Type, addr uint32) (Value, error) {
	return c.lift(mem, t, addr, nil)
}

func (c *Calculator) lift(mem Memory, t wit.Type, addr uint32, path []string) (Value, error) {
	switch typ := t.(type) {
	case wit.Bool:
		b, err := readUint(mem, addr, 1, path)
		return Bool(b != 0), err
	case wit.U8:
		b, err := readUint(mem, addr, 1, path)
		return U8(b), err
	case wit.U16:
		b, err := readUint(mem, addr, 2, path)
		return U16(b), err
	case wit.U32:
		b, err := readUint(mem, addr, 4, path)
		return U32(b), err
	case wit.S32:
		b, err := readUint(mem, addr, 4, path)
		return S32(int32(uint32(b))), err
	case wit.U64:
		b, err := readUint(mem, addr, 8, path)
		return U64(b), err
	case wit.S64:
		b, err := readUint(mem, addr, 8, path)
		return S64(int64(b)), err
	case wit.String:
		return liftString(mem, addr, path)
	case *wit.TypeDef:
		return c.liftTypeDef(mem, typ, addr, path)
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).WitType(TypeName(t)).Detail("no value decoding").Build()
}

func (c *Calculator) liftTypeDef(mem Memory, t *wit.TypeDef, addr uint32, path []string) (Value, error) {
	info, err := c.Calculate(t)
	if err != nil {
		return nil, err
	}

	switch kind := t.Kind.(type) {
	case *wit.Record:
		rec := make(Record, len(kind.Fields))
		for i, f := range kind.Fields {
			v, err := c.lift(mem, f.Type, addr+info.Offsets[i], appendPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			rec[i] = v
		}
		return rec, nil

	case *wit.Tuple:
		rec := make(Record, len(kind.Types))
		for i, ft := range kind.Types {
			v, err := c.lift(mem, ft, addr+info.Offsets[i], appendPath(path, fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			rec[i] = v
		}
		return rec, nil

	case *wit.List:
		ptr, err := readUint(mem, addr, 4, path)
		if err != nil {
			return nil, err
		}
		count, err := readUint(mem, addr+4, 4, path)
		if err != nil {
			return nil, err
		}
		el, err := c.Calculate(kind.Type)
		if err != nil {
			return nil, err
		}
		if count > MaxListLen {
			return nil, errors.Capacity(errors.PhaseDecode, path, "list element", int(count), MaxListLen)
		}
		end := ptr + count*uint64(el.Size)
		if end > math.MaxUint32+1 {
			return nil, errors.OutOfBounds(errors.PhaseDecode, path, uint32(ptr), uint32(count))
		}
		// the whole element buffer must be readable before it is allocated for
		if end > ptr {
			if _, err := mem.Read(uint32(end-1), 1); err != nil {
				return nil, errors.OutOfBounds(errors.PhaseDecode, path, uint32(ptr), uint32(end-ptr))
			}
		}
		list := make(List, count)
		for i := range list {
			v, err := c.lift(mem, kind.Type, uint32(ptr)+uint32(i)*el.Size, appendPath(path, fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil

	case *wit.Option:
		disc, payload, err := c.liftCase(mem, info, addr, 2, []wit.Type{nil, kind.Type}, path)
		if err != nil {
			return nil, err
		}
		if disc == 0 {
			return None, nil
		}
		return Some(payload), nil

	case *wit.Result:
		disc, payload, err := c.liftCase(mem, info, addr, 2, []wit.Type{kind.OK, kind.Err}, path)
		if err != nil {
			return nil, err
		}
		return Result{IsErr: disc == 1, Val: payload}, nil

	case *wit.Variant:
		types := make([]wit.Type, len(kind.Cases))
		for i, cs := range kind.Cases {
			types[i] = cs.Type
		}
		disc, payload, err := c.liftCase(mem, info, addr, len(types), types, path)
		if err != nil {
			return nil, err
		}
		return Case{Index: disc, Val: payload}, nil

	case *wit.Enum:
		disc, _, err := c.liftCase(mem, info, addr, len(kind.Cases), nil, path)
		if err != nil {
			return nil, err
		}
		return Case{Index: disc}, nil

	case wit.Type:
		return c.lift(mem, kind, addr, path)
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).WitType(TypeName(t)).Detail("no value decoding").Build()
}

// liftCase reads a discriminant and the selected payload. types may be nil
// for enums.
func (c *Calculator) liftCase(mem Memory, info Info, addr uint32, cases int, types []wit.Type, path []string) (uint32, Value, error) {
	d, err := readUint(mem, addr, info.DiscSize, path)
	if err != nil {
		return 0, nil, err
	}
	if d >= uint64(cases) {
		return 0, nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).Value(d).Detail("discriminant %d out of range for %d cases", d, cases).Build()
	}
	disc := uint32(d)
	if types == nil || types[disc] == nil {
		return disc, nil, nil
	}
	v, err := c.lift(mem, types[disc], addr+info.PayloadOffset, path)
	if err != nil {
		return 0, nil, err
	}
	return disc, v, nil
}

func liftString(mem Memory, addr uint32, path []string) (Value, error) {
	ptr, err := readUint(mem, addr, 4, path)
	if err != nil {
		return nil, err
	}
	n, err := readUint(mem, addr+4, 4, path)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return Str(""), nil
	}
	if n > MaxStringSize {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Path(path...).Detail("string length %d exceeds limit", n).Build()
	}
	data, err := mem.Read(uint32(ptr), uint32(n))
	if err != nil {
		return nil, errors.OutOfBounds(errors.PhaseDecode, path, uint32(ptr), uint32(n))
	}
	if !utf8.Valid(data) {
		return nil, errors.InvalidUTF8(errors.PhaseDecode, path, data)
	}
	return Str(string(data)), nil
}

func readUint(mem Memory, addr, width uint32, path []string) (uint64, error) {
	data, err := mem.Read(addr, width)
	if err != nil || uint32(len(data)) != width {
		return 0, errors.OutOfBounds(errors.PhaseDecode, path, addr, width)
	}
	switch width {
	case 1:
		return uint64(data[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(data)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(data)), nil
	default:
		return binary.LittleEndian.Uint64(data), nil
	}
}
