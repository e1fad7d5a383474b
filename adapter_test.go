package redis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// decodeInto feeds wire through a fresh Parser straight into adapter,
// exercising Init/OnNode/Done the way the multiplexer would for one
// top-level reply.
func decodeInto(t *testing.T, wire string, a Adapter) {
	t.Helper()
	p := NewParser()
	a.Init()
	consumed, done, err := p.Advance([]byte(wire), a)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, len(wire), consumed)
	a.Done()
}

func TestOKAdapter(t *testing.T) {
	var a OKAdapter
	decodeInto(t, "+OK\r\n", &a)
	require.NoError(t, a.Err)

	var a2 OKAdapter
	decodeInto(t, "-ERR bad\r\n", &a2)
	require.Error(t, a2.Err)
	var serr ServerError
	require.ErrorAs(t, a2.Err, &serr)
	var rerr *Error
	require.ErrorAs(t, a2.Err, &rerr)
	require.Equal(t, KindResp3SimpleError, rerr.Kind)

	var a3 OKAdapter
	decodeInto(t, "!8\r\nERR blob\r\n", &a3)
	require.ErrorAs(t, a3.Err, &rerr)
	require.Equal(t, KindResp3BlobError, rerr.Kind)
}

func TestIntAdapter(t *testing.T) {
	var a IntAdapter
	decodeInto(t, ":42\r\n", &a)
	require.NoError(t, a.Err)
	require.Equal(t, int64(42), a.Value)
	require.False(t, a.Null)

	var neg IntAdapter
	decodeInto(t, ":-7\r\n", &neg)
	require.Equal(t, int64(-7), neg.Value)

	var n IntAdapter
	decodeInto(t, "_\r\n", &n)
	require.True(t, n.Null)

	var mismatch IntAdapter
	decodeInto(t, "+OK\r\n", &mismatch)
	require.Error(t, mismatch.Err)
	var rerr *Error
	require.ErrorAs(t, mismatch.Err, &rerr)
	require.Equal(t, KindExpectsSimpleType, rerr.Kind)
}

func TestDoubleAdapter(t *testing.T) {
	var a DoubleAdapter
	decodeInto(t, ",3.5\r\n", &a)
	require.InDelta(t, 3.5, a.Value, 0.0001)

	var pinf DoubleAdapter
	decodeInto(t, ",inf\r\n", &pinf)
	require.True(t, math.IsInf(pinf.Value, 1))

	var ninf DoubleAdapter
	decodeInto(t, ",-inf\r\n", &ninf)
	require.True(t, math.IsInf(ninf.Value, -1))

	var n DoubleAdapter
	decodeInto(t, "_\r\n", &n)
	require.True(t, n.Null)
}

func TestBoolAdapter(t *testing.T) {
	var tv BoolAdapter
	decodeInto(t, "#t\r\n", &tv)
	require.True(t, tv.Value)

	var fv BoolAdapter
	decodeInto(t, "#f\r\n", &fv)
	require.False(t, fv.Value)
}

func TestBulkBytesAdapter(t *testing.T) {
	var a BulkBytesAdapter
	decodeInto(t, "$5\r\nhello\r\n", &a)
	require.Equal(t, []byte("hello"), a.Value)
	require.False(t, a.Null)

	var n BulkBytesAdapter
	decodeInto(t, "_\r\n", &n)
	require.True(t, n.Null)
	require.Nil(t, n.Value)

	var mismatch BulkBytesAdapter
	decodeInto(t, "*0\r\n", &mismatch)
	require.Error(t, mismatch.Err)
}

func TestBulkStringAdapter(t *testing.T) {
	var a BulkStringAdapter
	decodeInto(t, "$3\r\nfoo\r\n", &a)
	require.Equal(t, "foo", a.Value)
	require.True(t, a.Found())

	var n BulkStringAdapter
	decodeInto(t, "_\r\n", &n)
	require.False(t, n.Found())
	require.True(t, n.Null)
}

func TestBytesArrayAdapter(t *testing.T) {
	var a BytesArrayAdapter
	decodeInto(t, "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n", &a)
	require.NoError(t, a.Err)
	require.Equal(t, [][]byte{[]byte("foo"), []byte("bar")}, a.Value)

	var empty BytesArrayAdapter
	decodeInto(t, "*0\r\n", &empty)
	require.NoError(t, empty.Err)
	require.Empty(t, empty.Value)

	var nested BytesArrayAdapter
	decodeInto(t, "*1\r\n*1\r\n:1\r\n", &nested)
	require.Error(t, nested.Err)
	var rerr *Error
	require.ErrorAs(t, nested.Err, &rerr)
	require.Equal(t, KindNestedAggregateNotSupported, rerr.Kind)
}

func TestStringArrayAdapter(t *testing.T) {
	var a StringArrayAdapter
	decodeInto(t, "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n", &a)
	require.NoError(t, a.Err)
	require.Equal(t, []string{"foo", "bar"}, a.Value)

	var notAgg StringArrayAdapter
	decodeInto(t, "+OK\r\n", &notAgg)
	require.Error(t, notAgg.Err)
	var rerr *Error
	require.ErrorAs(t, notAgg.Err, &rerr)
	require.Equal(t, KindExpectsAggregate, rerr.Kind)
}

// TestTupleAdapter exercises the slot-level contract: one Adapter driven
// across K separate top-level replies, advancing t.idx on each Done.
func TestTupleAdapter(t *testing.T) {
	var okA OKAdapter
	var intA IntAdapter
	tup := NewTupleAdapter(&okA, &intA)

	replies := []string{"+OK\r\n", ":9\r\n"}
	p := NewParser()
	for _, wire := range replies {
		tup.Init()
		consumed, done, err := p.Advance([]byte(wire), tup)
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, len(wire), consumed)
		tup.Done()
	}

	require.Equal(t, 2, tup.Size())
	require.NoError(t, okA.Err)
	require.Equal(t, int64(9), tup.At(1).(*IntAdapter).Value)
}

// TestAdapterNeverReturnsError pins the invariant that OnNode always
// returns nil for semantic mismatches: the parser must keep consuming
// bytes for the rest of a pipelined request regardless of what a given
// adapter expected.
func TestAdapterNeverReturnsError(t *testing.T) {
	adapters := []Adapter{
		&OKAdapter{}, &IntAdapter{}, &DoubleAdapter{}, &BoolAdapter{},
		&BulkBytesAdapter{}, &BulkStringAdapter{}, &BytesArrayAdapter{}, &StringArrayAdapter{},
	}
	for _, a := range adapters {
		a.Init()
		require.NoError(t, a.OnNode(Node{Type: TypeArray, Size: 2, Depth: 0}))
	}
}
