package canon

import (
	"fmt"
	"math"

	"go.bytecodealliance.org/wit"

	"github.com/RAKUDEJI/wacli/errors"
)

// NodeKind identifies how a node is stored.
type NodeKind uint8

const (
	NodeScalar    NodeKind = iota // integer or bool of Width bytes
	NodeString                    // static text
	NodeDynString                 // text addressed by run-time locals
	NodeList
	NodeRecord  // records and tuples
	NodeVariant // options, results, variants and enums
)

// Node is a value bound to its layout. Nodes are produced by Freeze and are
// never mutated afterwards; the same node drives data-segment bytes, emitted
// store instructions and host-side lowering.
type Node struct {
	Type    wit.Type
	Payload *Node
	Text    string
	Fields  []*Node
	Offsets []uint32
	Elems   []*Node
	Dyn     DynString
	Bits    uint64
	Size    uint32
	Align   uint32
	Width   uint32
	// Stride and ElemAlign describe list element storage.
	Stride    uint32
	ElemAlign uint32
	// Disc, DiscSize and PayloadOffset describe variant-like nodes.
	Disc          uint32
	DiscSize      uint32
	PayloadOffset uint32
	Kind          NodeKind
}

// Dynamic reports whether the node contains run-time sourced leaves.
func (n *Node) Dynamic() bool {
	switch n.Kind {
	case NodeDynString:
		return true
	case NodeList:
		for _, e := range n.Elems {
			if e.Dynamic() {
				return true
			}
		}
	case NodeRecord:
		for _, f := range n.Fields {
			if f.Dynamic() {
				return true
			}
		}
	case NodeVariant:
		return n.Payload != nil && n.Payload.Dynamic()
	}
	return false
}

// Walk visits n and its descendants depth first, in storage order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, f := range n.Fields {
		f.Walk(fn)
	}
	for _, e := range n.Elems {
		e.Walk(fn)
	}
	if n.Payload != nil {
		n.Payload.Walk(fn)
	}
}

// Freeze binds v to t with a fresh calculator.
func Freeze(t wit.Type, v Value) (*Node, error) {
	return NewCalculator().Freeze(t, v)
}

// Freeze checks that v has the shape of t and computes every size, offset
// and discriminant.
func (c *Calculator) Freeze(t wit.Type, v Value) (*Node, error) {
	return c.freeze(t, v, nil)
}

func (c *Calculator) freeze(t wit.Type, v Value, path []string) (*Node, error) {
	info, err := c.Calculate(t)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Path == nil {
			e.Path = path
		}
		return nil, err
	}
	n := &Node{Type: t, Size: info.Size, Align: info.Align}
	mismatch := func() error {
		return errors.TypeMismatch(errors.PhaseEncode, path, TypeName(t), v)
	}

	switch typ := t.(type) {
	case wit.Bool:
		b, ok := v.(Bool)
		if !ok {
			return nil, mismatch()
		}
		n.Kind, n.Width = NodeScalar, 1
		if b {
			n.Bits = 1
		}
	case wit.U8:
		x, ok := v.(U8)
		if !ok {
			return nil, mismatch()
		}
		n.Kind, n.Width, n.Bits = NodeScalar, 1, uint64(x)
	case wit.U16:
		x, ok := v.(U16)
		if !ok {
			return nil, mismatch()
		}
		n.Kind, n.Width, n.Bits = NodeScalar, 2, uint64(x)
	case wit.U32:
		x, ok := v.(U32)
		if !ok {
			return nil, mismatch()
		}
		n.Kind, n.Width, n.Bits = NodeScalar, 4, uint64(x)
	case wit.S32:
		x, ok := v.(S32)
		if !ok {
			return nil, mismatch()
		}
		n.Kind, n.Width, n.Bits = NodeScalar, 4, uint64(uint32(x))
	case wit.U64:
		x, ok := v.(U64)
		if !ok {
			return nil, mismatch()
		}
		n.Kind, n.Width, n.Bits = NodeScalar, 8, uint64(x)
	case wit.S64:
		x, ok := v.(S64)
		if !ok {
			return nil, mismatch()
		}
		n.Kind, n.Width, n.Bits = NodeScalar, 8, uint64(x)
	case wit.String:
		switch s := v.(type) {
		case Str:
			n.Kind, n.Text = NodeString, string(s)
		case DynString:
			n.Kind, n.Dyn = NodeDynString, s
		default:
			return nil, mismatch()
		}
	case *wit.TypeDef:
		if err := c.freezeTypeDef(n, typ, v, info, path); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(path...).WitType(TypeName(t)).Detail("no value encoding").Build()
	}
	return n, nil
}

func (c *Calculator) freezeTypeDef(n *Node, t *wit.TypeDef, v Value, info Info, path []string) error {
	mismatch := func() error {
		return errors.TypeMismatch(errors.PhaseEncode, path, TypeName(t), v)
	}

	switch kind := t.Kind.(type) {
	case *wit.Record:
		rec, ok := v.(Record)
		if !ok || len(rec) != len(kind.Fields) {
			return mismatch()
		}
		n.Kind, n.Offsets = NodeRecord, info.Offsets
		n.Fields = make([]*Node, len(rec))
		for i, f := range kind.Fields {
			child, err := c.freeze(f.Type, rec[i], appendPath(path, f.Name))
			if err != nil {
				return err
			}
			n.Fields[i] = child
		}

	case *wit.Tuple:
		rec, ok := v.(Record)
		if !ok || len(rec) != len(kind.Types) {
			return mismatch()
		}
		n.Kind, n.Offsets = NodeRecord, info.Offsets
		n.Fields = make([]*Node, len(rec))
		for i, ft := range kind.Types {
			child, err := c.freeze(ft, rec[i], appendPath(path, fmt.Sprint(i)))
			if err != nil {
				return err
			}
			n.Fields[i] = child
		}

	case *wit.List:
		list, ok := v.(List)
		if !ok {
			return mismatch()
		}
		el, err := c.Calculate(kind.Type)
		if err != nil {
			return err
		}
		if uint64(len(list))*uint64(el.Size) > math.MaxUint32 {
			return errors.Overflow(errors.PhaseLayout, path, fmt.Sprintf("list of %d elements", len(list)))
		}
		n.Kind, n.Stride, n.ElemAlign = NodeList, el.Size, el.Align
		n.Elems = make([]*Node, len(list))
		for i, e := range list {
			child, err := c.freeze(kind.Type, e, appendPath(path, fmt.Sprint(i)))
			if err != nil {
				return err
			}
			n.Elems[i] = child
		}

	case *wit.Option:
		opt, ok := v.(Option)
		if !ok {
			return mismatch()
		}
		if opt.Val == nil {
			return c.setCase(n, info, 0, nil, nil, path)
		}
		return c.setCase(n, info, 1, kind.Type, opt.Val, path)

	case *wit.Result:
		res, ok := v.(Result)
		if !ok {
			return mismatch()
		}
		if res.IsErr {
			return c.setCase(n, info, 1, kind.Err, res.Val, appendPath(path, "err"))
		}
		return c.setCase(n, info, 0, kind.OK, res.Val, appendPath(path, "ok"))

	case *wit.Variant:
		cs, ok := v.(Case)
		if !ok || int(cs.Index) >= len(kind.Cases) {
			return mismatch()
		}
		c0 := kind.Cases[cs.Index]
		return c.setCase(n, info, cs.Index, c0.Type, cs.Val, appendPath(path, c0.Name))

	case *wit.Enum:
		cs, ok := v.(Case)
		if !ok || int(cs.Index) >= len(kind.Cases) || cs.Val != nil {
			return mismatch()
		}
		return c.setCase(n, info, cs.Index, nil, nil, path)

	case wit.Type:
		inner, err := c.freeze(kind, v, path)
		if err != nil {
			return err
		}
		inner.Type = t
		*n = *inner

	default:
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(path...).WitType(TypeName(t)).Detail("no value encoding").Build()
	}
	return nil
}

// setCase fills a variant-like node. payloadType nil means the case carries
// nothing, in which case val must be nil too.
func (c *Calculator) setCase(n *Node, info Info, disc uint32, payloadType wit.Type, val Value, path []string) error {
	n.Kind = NodeVariant
	n.Disc, n.DiscSize, n.PayloadOffset = disc, info.DiscSize, info.PayloadOffset
	if payloadType == nil {
		if val != nil {
			return errors.TypeMismatch(errors.PhaseEncode, path, "_", val)
		}
		return nil
	}
	if val == nil {
		return errors.TypeMismatch(errors.PhaseEncode, path, TypeName(payloadType), nil)
	}
	payload, err := c.freeze(payloadType, val, path)
	if err != nil {
		return err
	}
	n.Payload = payload
	return nil
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
