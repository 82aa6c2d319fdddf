package canon

// sink is a storage target for frozen nodes. Addresses are whatever the
// sink understands: absolute for images and host memory, relative to a base
// local for emitted code.
type sink interface {
	scalar(addr, width uint32, bits uint64) error
	str(addr uint32, s string) error
	dyn(addr uint32, d DynString) error
	// buffer reserves out-of-line storage for list elements.
	buffer(size, align uint32) (uint32, error)
}

// store is the single walk shared by every output form.
func store(s sink, addr uint32, n *Node) error {
	switch n.Kind {
	case NodeScalar:
		return s.scalar(addr, n.Width, n.Bits)

	case NodeString:
		return s.str(addr, n.Text)

	case NodeDynString:
		return s.dyn(addr, n.Dyn)

	case NodeList:
		var ptr uint32
		if len(n.Elems) > 0 {
			var err error
			// Freeze already checked count*stride against the address range.
			ptr, err = s.buffer(uint32(len(n.Elems))*n.Stride, n.ElemAlign)
			if err != nil {
				return err
			}
			for i, e := range n.Elems {
				if err := store(s, ptr+uint32(i)*n.Stride, e); err != nil {
					return err
				}
			}
		}
		if err := s.scalar(addr, 4, uint64(ptr)); err != nil {
			return err
		}
		return s.scalar(addr+4, 4, uint64(len(n.Elems)))

	case NodeRecord:
		for i, f := range n.Fields {
			if err := store(s, addr+n.Offsets[i], f); err != nil {
				return err
			}
		}
		return nil

	case NodeVariant:
		if err := s.scalar(addr, n.DiscSize, uint64(n.Disc)); err != nil {
			return err
		}
		if n.Payload != nil {
			return store(s, addr+n.PayloadOffset, n.Payload)
		}
		return nil
	}
	return nil
}
