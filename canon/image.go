package canon

import (
	"encoding/binary"
	"math"

	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/internal/strtab"
)

// ImageBuilder lays frozen nodes out as static data-segment bytes.
// The shared string table comes first; nodes and their list buffers follow,
// placed by a build-time bump allocator that honours each alignment.
type ImageBuilder struct {
	strings *strtab.Table
	roots   []*Node
	base    uint32
}

// NewImageBuilder creates a builder for a segment placed at base.
func NewImageBuilder(base uint32) *ImageBuilder {
	return &ImageBuilder{strings: strtab.New(), base: base}
}

// InternString adds s to the string table.
func (b *ImageBuilder) InternString(s string) {
	b.strings.Intern(s)
}

// Intern adds every static string in n to the string table without placing
// n itself. Nodes stored by emitted code use this.
func (b *ImageBuilder) Intern(n *Node) {
	n.Walk(func(c *Node) {
		if c.Kind == NodeString {
			b.strings.Intern(c.Text)
		}
	})
}

// Add schedules n for placement and returns a handle for Image.Addr.
func (b *ImageBuilder) Add(n *Node) int {
	b.Intern(n)
	b.roots = append(b.roots, n)
	return len(b.roots) - 1
}

// Build produces the image. Nodes with run-time leaves cannot be placed.
func (b *ImageBuilder) Build() (*Image, error) {
	table := b.strings.Bytes()
	if uint64(b.base)+uint64(len(table)) > math.MaxUint32 {
		return nil, errors.Overflow(errors.PhaseEncode, nil, "string table")
	}

	img := &Image{
		Strings: b.strings,
		Base:    b.base,
		Bytes:   append([]byte(nil), table...),
		addrs:   make([]uint32, len(b.roots)),
	}
	for i, n := range b.roots {
		if n.Dynamic() {
			return nil, errors.Unsupported(errors.PhaseEncode, "static image of a node with run-time strings")
		}
		addr, err := img.buffer(n.Size, n.Align)
		if err != nil {
			return nil, err
		}
		if err := store(img, addr, n); err != nil {
			return nil, err
		}
		img.addrs[i] = addr
	}
	return img, nil
}

// Image is a finished static data segment.
type Image struct {
	Strings *strtab.Table
	Bytes   []byte
	addrs   []uint32
	Base    uint32
}

// Addr returns the absolute address of the node added with handle h.
func (img *Image) Addr(h int) uint32 {
	return img.addrs[h]
}

// StringAddr returns the absolute address of interned text s.
func (img *Image) StringAddr(s string) (uint32, bool) {
	e, ok := img.Strings.Lookup(s)
	if !ok {
		return 0, false
	}
	return img.Base + e.Offset, true
}

// End returns the first address past the image.
func (img *Image) End() uint32 {
	return img.Base + uint32(len(img.Bytes))
}

func (img *Image) buffer(size, align uint32) (uint32, error) {
	start := alignTo64(uint64(len(img.Bytes)), align)
	end := start + uint64(size)
	if uint64(img.Base)+end > math.MaxUint32 {
		return 0, errors.Overflow(errors.PhaseEncode, nil, "static image")
	}
	img.Bytes = append(img.Bytes, make([]byte, end-uint64(len(img.Bytes)))...)
	return img.Base + uint32(start), nil
}

func (img *Image) scalar(addr, width uint32, bits uint64) error {
	off := addr - img.Base
	switch width {
	case 1:
		img.Bytes[off] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(img.Bytes[off:], uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(img.Bytes[off:], uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(img.Bytes[off:], bits)
	}
	return nil
}

func (img *Image) str(addr uint32, s string) error {
	ptr, ok := img.StringAddr(s)
	if !ok {
		return errors.NotFound(errors.PhaseEncode, "interned string", s)
	}
	if err := img.scalar(addr, 4, uint64(ptr)); err != nil {
		return err
	}
	return img.scalar(addr+4, 4, uint64(len(s)))
}

func (img *Image) dyn(uint32, DynString) error {
	return errors.Unsupported(errors.PhaseEncode, "run-time string in static image")
}
