// Package encoding implements the TLV wire format used on unitlink channels.
//
// A TLV node is a self-describing binary value: one header byte carrying a
// 7-bit type and a parent flag, a little-endian u32 value length, and either
// an opaque payload (leaf) or a concatenation of child nodes (parent).
package encoding

import (
	"encoding/binary"
	"math"
)

// HeaderSize is the fixed per-node overhead: header byte plus u32 length.
const HeaderSize = 5

// MaxType is the largest encodable type; the high bit of the header byte is
// the parent flag.
const MaxType = 0x7F

const parentFlag = 0x80

// TLV is a single node of a TLV tree. A node is either a leaf carrying an
// opaque payload or a parent carrying child nodes. Parents are mutated only
// through AddChild; once a node stops being modified it is safe to read
// concurrently.
type TLV struct {
	typ      byte
	isParent bool
	data     []byte

	// children holds wire order; byType groups the same nodes for lookup.
	children []*TLV
	byType   map[byte][]*TLV

	fullSize uint32
}

// NewLeaf creates a leaf node. The payload may be empty but not nil.
func NewLeaf(typ byte, data []byte) (*TLV, error) {
	if typ > MaxType {
		return nil, ErrFormat{"type does not fit in 7 bits"}
	}
	if data == nil {
		return nil, ErrFormat{"leaf payload must not be nil"}
	}
	if uint64(len(data)) > math.MaxUint32-HeaderSize {
		return nil, ErrOverflow{}
	}
	return &TLV{
		typ:      typ,
		data:     data,
		fullSize: HeaderSize + uint32(len(data)),
	}, nil
}

// NewParent creates a parent node with no children.
func NewParent(typ byte) (*TLV, error) {
	if typ > MaxType {
		return nil, ErrFormat{"type does not fit in 7 bits"}
	}
	return &TLV{
		typ:      typ,
		isParent: true,
		byType:   make(map[byte][]*TLV),
		fullSize: HeaderSize,
	}, nil
}

// Type returns the 7-bit node type.
func (t *TLV) Type() byte {
	return t.typ
}

// IsParent returns true if the node carries children rather than a payload.
func (t *TLV) IsParent() bool {
	return t.isParent
}

// Data returns the leaf payload without copying. It is nil for parents.
// Callers that need an independent copy use AsBytes.
func (t *TLV) Data() []byte {
	return t.data
}

// FullSize returns the exact number of bytes the node occupies on the wire.
func (t *TLV) FullSize() uint32 {
	return t.fullSize
}

// AddChild appends a child node. The child joins its type group in insertion
// order and the parent's wire size grows by the child's full size, with the
// u32 total checked.
func (t *TLV) AddChild(child *TLV) error {
	if !t.isParent {
		return ErrFormat{"cannot add a child to a leaf"}
	}
	if child == nil {
		return ErrFormat{"child must not be nil"}
	}
	if uint64(t.fullSize)+uint64(child.fullSize) > math.MaxUint32 {
		return ErrOverflow{}
	}
	t.children = append(t.children, child)
	t.byType[child.typ] = append(t.byType[child.typ], child)
	t.fullSize += child.fullSize
	return nil
}

// GetChild returns the index-th child of the given type in insertion order,
// or nil if the node is a leaf, the type is absent, or the index is out of
// range.
func (t *TLV) GetChild(typ byte, index int) *TLV {
	if !t.isParent {
		return nil
	}
	group := t.byType[typ]
	if index < 0 || index >= len(group) {
		return nil
	}
	return group[index]
}

// Children returns all children in wire order. The slice is a copy; the
// nodes are not.
func (t *TLV) Children() []*TLV {
	out := make([]*TLV, len(t.children))
	copy(out, t.children)
	return out
}

// ChildCount returns the number of children of the given type. It is zero
// for leaves.
func (t *TLV) ChildCount(typ byte) int {
	if !t.isParent {
		return 0
	}
	return len(t.byType[typ])
}

// Bytes serializes the node to exactly FullSize() bytes.
func (t *TLV) Bytes() []byte {
	buf := make([]byte, 0, t.fullSize)
	return t.appendTo(buf)
}

func (t *TLV) appendTo(buf []byte) []byte {
	header := t.typ
	if t.isParent {
		header |= parentFlag
	}
	buf = append(buf, header)
	buf = binary.LittleEndian.AppendUint32(buf, t.fullSize-HeaderSize)
	if t.isParent {
		for _, child := range t.children {
			buf = child.appendTo(buf)
		}
	} else {
		buf = append(buf, t.data...)
	}
	return buf
}

// Parse reads one TLV node from the start of buf. Trailing bytes after the
// node are not an error; the node's FullSize tells how much was consumed.
//
// The length field is never trusted: bounds are validated before any payload
// is copied or any child is parsed, and a child that would overrun its
// parent's value fails the whole parse.
func Parse(buf []byte) (*TLV, error) {
	t, err := parseAt(buf)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parseAt(buf []byte) (*TLV, error) {
	if len(buf) < HeaderSize {
		return nil, ErrTruncated{}
	}
	header := buf[0]
	length := binary.LittleEndian.Uint32(buf[1:HeaderSize])
	if uint64(len(buf)-HeaderSize) < uint64(length) {
		return nil, ErrTruncated{}
	}

	t := &TLV{
		typ:      header & MaxType,
		isParent: header&parentFlag != 0,
		fullSize: HeaderSize + length,
	}
	value := buf[HeaderSize : HeaderSize+length]

	if !t.isParent {
		t.data = make([]byte, length)
		copy(t.data, value)
		return t, nil
	}

	t.byType = make(map[byte][]*TLV)
	for len(value) > 0 {
		child, err := parseAt(value)
		if err != nil {
			return nil, err
		}
		t.children = append(t.children, child)
		t.byType[child.typ] = append(t.byType[child.typ], child)
		value = value[child.fullSize:]
	}
	return t, nil
}
