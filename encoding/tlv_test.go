package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unitlink/unitlink/encoding"
	tu "github.com/unitlink/unitlink/utils/testutils"
)

func TestLeafSerialize(t *testing.T) {
	tu.SetT(t)

	leaf := tu.NoErr(encoding.NewLeaf(0x23, []byte{0xDE, 0xAD}))
	require.Equal(t, []byte{0x23, 0x02, 0x00, 0x00, 0x00, 0xDE, 0xAD}, leaf.Bytes())
	require.Equal(t, uint32(7), leaf.FullSize())
}

func TestEmptyLeafSerialize(t *testing.T) {
	tu.SetT(t)

	leaf := tu.NoErr(encoding.NewLeaf(0x33, []byte{}))
	require.Equal(t, []byte{0x33, 0x00, 0x00, 0x00, 0x00}, leaf.Bytes())
	require.Equal(t, uint32(5), leaf.FullSize())
}

func TestParentSerialize(t *testing.T) {
	tu.SetT(t)

	parent := tu.NoErr(encoding.NewParent(0x21))
	require.NoError(t, parent.AddChild(tu.NoErr(encoding.NewLeaf(0x01, []byte{0x01}))))
	require.NoError(t, parent.AddChild(tu.NoErr(encoding.NewLeaf(0x02, []byte{0x07, 0x00, 0x00, 0x00}))))

	// value = 6 bytes of the first child + 9 of the second
	require.Equal(t, []byte{
		0xA1, 0x0F, 0x00, 0x00, 0x00,
		0x01, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x02, 0x04, 0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00,
	}, parent.Bytes())
	require.Equal(t, uint32(20), parent.FullSize())
}

func TestParentHeaderBit(t *testing.T) {
	tu.SetT(t)

	for typ := byte(0); typ <= encoding.MaxType; typ++ {
		leaf := tu.NoErr(encoding.NewLeaf(typ, []byte{}))
		require.Equal(t, typ, leaf.Bytes()[0])

		parent := tu.NoErr(encoding.NewParent(typ))
		require.Equal(t, byte(0x80)|typ, parent.Bytes()[0])
	}

	_, err := encoding.NewLeaf(0x80, []byte{})
	require.Error(t, err)
	_, err = encoding.NewParent(0xFF)
	require.Error(t, err)
}

func TestNilLeafPayload(t *testing.T) {
	_, err := encoding.NewLeaf(0x01, nil)
	require.Error(t, err)
}

func TestSizeAccounting(t *testing.T) {
	tu.SetT(t)

	parent := tu.NoErr(encoding.NewParent(0x10))
	require.Equal(t, uint32(5), parent.FullSize())

	total := uint32(5)
	for i := 0; i < 8; i++ {
		child := tu.NoErr(encoding.NewLeaf(byte(i%3), make([]byte, i)))
		require.NoError(t, parent.AddChild(child))
		total += child.FullSize()
		require.Equal(t, total, parent.FullSize())
	}

	require.Len(t, parent.Bytes(), int(total))
}

func TestAddChildToLeaf(t *testing.T) {
	tu.SetT(t)

	leaf := tu.NoErr(encoding.NewLeaf(0x01, []byte{0x01}))
	child := tu.NoErr(encoding.NewLeaf(0x02, []byte{}))
	require.Error(t, leaf.AddChild(child))
}

func TestGetChild(t *testing.T) {
	tu.SetT(t)

	parent := tu.NoErr(encoding.NewParent(0x20))
	a0 := tu.NoErr(encoding.NewLeaf(0x0A, []byte{0x01}))
	b0 := tu.NoErr(encoding.NewLeaf(0x0B, []byte{0x02}))
	a1 := tu.NoErr(encoding.NewLeaf(0x0A, []byte{0x03}))
	require.NoError(t, parent.AddChild(a0))
	require.NoError(t, parent.AddChild(b0))
	require.NoError(t, parent.AddChild(a1))

	require.Same(t, a0, parent.GetChild(0x0A, 0))
	require.Same(t, a1, parent.GetChild(0x0A, 1))
	require.Same(t, b0, parent.GetChild(0x0B, 0))
	require.Nil(t, parent.GetChild(0x0A, 2))
	require.Nil(t, parent.GetChild(0x0C, 0))
	require.Nil(t, parent.GetChild(0x0A, -1))

	require.Equal(t, 2, parent.ChildCount(0x0A))
	require.Equal(t, 1, parent.ChildCount(0x0B))
	require.Equal(t, 0, parent.ChildCount(0x0C))
	require.Equal(t, 0, a0.ChildCount(0x0A))
}

func TestParseRoundTrip(t *testing.T) {
	tu.SetT(t)

	root := tu.NoErr(encoding.NewParent(0x21))
	require.NoError(t, root.AddChild(tu.NoErr(encoding.NewLeaf(0x01, []byte{0x01}))))
	inner := tu.NoErr(encoding.NewParent(0x05))
	require.NoError(t, inner.AddChild(tu.NoErr(encoding.NewLeaf(0x06, []byte("hello")))))
	require.NoError(t, root.AddChild(inner))
	require.NoError(t, root.AddChild(tu.NoErr(encoding.NewLeaf(0x01, []byte{0x02}))))

	wire := root.Bytes()
	parsed := tu.NoErr(encoding.Parse(wire))

	require.True(t, parsed.IsParent())
	require.Equal(t, root.Type(), parsed.Type())
	require.Equal(t, root.FullSize(), parsed.FullSize())
	require.Equal(t, 2, parsed.ChildCount(0x01))
	require.Equal(t, []byte{0x01}, parsed.GetChild(0x01, 0).Data())
	require.Equal(t, []byte{0x02}, parsed.GetChild(0x01, 1).Data())

	nested := parsed.GetChild(0x05, 0)
	require.NotNil(t, nested)
	require.Equal(t, []byte("hello"), nested.GetChild(0x06, 0).Data())

	// Byte-stable round trip
	require.Equal(t, wire, parsed.Bytes())
}

func TestParseRejectsTruncation(t *testing.T) {
	tu.SetT(t)

	parent := tu.NoErr(encoding.NewParent(0x21))
	require.NoError(t, parent.AddChild(tu.NoErr(encoding.NewLeaf(0x01, []byte{0x01}))))
	require.NoError(t, parent.AddChild(tu.NoErr(encoding.NewLeaf(0x02, []byte{0x07, 0x00, 0x00, 0x00}))))
	wire := parent.Bytes()
	require.Len(t, wire, 20)

	for cut := 0; cut < len(wire); cut++ {
		_, err := encoding.Parse(wire[:cut])
		require.Error(t, err, "prefix of %d bytes must fail", cut)
	}
}

func TestParseChildOverrun(t *testing.T) {
	// Parent claims 6 value bytes but its only child claims 7.
	wire := []byte{
		0x81, 0x06, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x00, 0x00, 0x00, 0xAA,
	}
	_, err := encoding.Parse(wire)
	require.Error(t, err)
}

func TestParseBogusLength(t *testing.T) {
	// Leaf claims 4 GiB of payload; the bounds check must fail before any
	// allocation happens.
	wire := []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	_, err := encoding.Parse(wire)
	require.Error(t, err)
}

func TestParseTrailingBytes(t *testing.T) {
	tu.SetT(t)

	leaf := tu.NoErr(encoding.NewLeaf(0x23, []byte{0xDE, 0xAD}))
	wire := append(leaf.Bytes(), 0x99, 0x98)

	parsed := tu.NoErr(encoding.Parse(wire))
	require.Equal(t, uint32(7), parsed.FullSize())
	require.Equal(t, []byte{0xDE, 0xAD}, parsed.Data())
}

func TestParsedLeafCopiesPayload(t *testing.T) {
	tu.SetT(t)

	leaf := tu.NoErr(encoding.NewLeaf(0x23, []byte{0xDE, 0xAD}))
	wire := leaf.Bytes()
	parsed := tu.NoErr(encoding.Parse(wire))

	wire[5] = 0x00
	require.Equal(t, []byte{0xDE, 0xAD}, parsed.Data())
}
