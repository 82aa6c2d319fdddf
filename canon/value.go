package canon

// Value is a typed value tree. Which Go type is expected for a WIT type:
//
//	bool              Bool
//	u8 u16 u32 u64    U8 U16 U32 U64
//	s32 s64           S32 S64
//	string            Str, or DynString inside emitted code
//	list<T>           List
//	record, tuple     Record (fields in declaration order)
//	option<T>         Option
//	result<T, E>      Result
//	variant, enum     Case
type Value interface {
	isValue()
}

type (
	Bool bool
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	S32  int32
	S64  int64
	Str  string
)

// DynString is a string whose pointer and length live in function locals
// at run time. Only the Emitter can store it.
type DynString struct {
	Ptr uint32
	Len uint32
}

// List holds list elements in order.
type List []Value

// Record holds record or tuple fields in declaration order.
type Record []Value

// Option is absent when Val is nil.
type Option struct {
	Val Value
}

// Result is ok or err; Val is nil for an omitted payload type.
type Result struct {
	Val   Value
	IsErr bool
}

// Case selects variant or enum case Index; Val is nil for payload-free cases.
type Case struct {
	Val   Value
	Index uint32
}

func (Bool) isValue()      {}
func (U8) isValue()        {}
func (U16) isValue()       {}
func (U32) isValue()       {}
func (U64) isValue()       {}
func (S32) isValue()       {}
func (S64) isValue()       {}
func (Str) isValue()       {}
func (DynString) isValue() {}
func (List) isValue()      {}
func (Record) isValue()    {}
func (Option) isValue()    {}
func (Result) isValue()    {}
func (Case) isValue()      {}

// Some wraps v as a present option.
func Some(v Value) Option { return Option{Val: v} }

// None is the absent option.
var None = Option{}

func Ok(v Value) Result  { return Result{Val: v} }
func Err(v Value) Result { return Result{Val: v, IsErr: true} }

// Strings converts a Go string slice into a list of Str.
func Strings(ss []string) List {
	out := make(List, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

// OptionalString maps nil to None.
func OptionalString(s *string) Option {
	if s == nil {
		return None
	}
	return Some(Str(*s))
}
