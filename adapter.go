package redis

import (
	"math"
	"strconv"
)

// Adapter consumes the node stream for one reply and writes it into a user
// response object (C3). For a pipelined request with K expected replies,
// the multiplexer invokes the same Adapter K times, once per reply: Init at
// the start of each top-level reply, OnNode for every node in that reply's
// tree, Done when that reply's tree is complete.
//
// OnNode returning a non-nil error is reserved for the adapter refusing to
// continue at all (it should not happen in the adapters below); mismatches
// that spec §4.3 enumerates as adapter-error kinds are instead recorded
// into the adapter's own Err field and OnNode returns nil, so the parser
// keeps consuming bytes and the rest of a pipelined request's replies stay
// byte-aligned with the wire. The connection is never closed because of
// these; only the offending exec's result carries the error.
type Adapter interface {
	Init()
	OnNode(n Node) error
	Done()

	// Size reports how many top-level replies this adapter expects to
	// consume: 1 for leaf/simple adapters, the static arity for tuple
	// adapters. Exec does not compare it with the request's
	// ExpectedReplies.
	Size() int
}

// adapterError builds the *Error for one of the enumerated adapter-error
// kinds (C3's contract).
func adapterError(k Kind) error { return newErr(k) }

// isServerErrorNode reports whether n is a resp3 error reply (simple_error
// or blob_error), and returns the classified error if so: callers can
// errors.As it into a *Error to inspect Kind, or into a ServerError to read
// the verbatim text and Prefix().
func isServerErrorNode(n Node) (error, bool) {
	switch n.Type {
	case TypeSimpleError:
		return serverNodeErr(KindResp3SimpleError, ServerError(n.Value)), true
	case TypeBlobError:
		return serverNodeErr(KindResp3BlobError, ServerError(n.Value)), true
	default:
		return nil, false
	}
}

// IgnoreAdapter discards its reply entirely. Used for requests whose
// result the caller does not care about beyond the slot's own error.
type IgnoreAdapter struct{}

func (IgnoreAdapter) Init()            {}
func (IgnoreAdapter) OnNode(Node) error { return nil }
func (IgnoreAdapter) Done()             {}
func (IgnoreAdapter) Size() int        { return 1 }

// OKAdapter expects a simple_string "OK" (or any simple string) top-level
// reply, surfacing server errors via Err.
type OKAdapter struct {
	Err error
	got bool
}

func (a *OKAdapter) Init() { *a = OKAdapter{} }

func (a *OKAdapter) OnNode(n Node) error {
	if a.got {
		a.Err = adapterError(KindNestedAggregateNotSupported)
		return nil
	}
	a.got = true
	if se, ok := isServerErrorNode(n); ok {
		a.Err = se
		return nil
	}
	switch n.Type {
	case TypeSimpleString, TypeNull:
	default:
		a.Err = adapterError(KindExpectsSimpleType)
	}
	return nil
}

func (a *OKAdapter) Done()     {}
func (a *OKAdapter) Size() int { return 1 }

// IntAdapter decodes a RESP3 number (":") leaf into an int64.
type IntAdapter struct {
	Value int64
	Null  bool
	Err   error
	got   bool
}

func (a *IntAdapter) Init() { *a = IntAdapter{} }

func (a *IntAdapter) OnNode(n Node) error {
	if a.got {
		a.Err = adapterError(KindNestedAggregateNotSupported)
		return nil
	}
	a.got = true
	if se, ok := isServerErrorNode(n); ok {
		a.Err = se
		return nil
	}
	switch n.Type {
	case TypeNumber, TypeBigNumber:
		// The parser's validateLine already rejected anything that
		// doesn't look numeric before ever emitting this node.
		a.Value = ParseInt(n.Value)
	case TypeNull:
		a.Null = true
	default:
		a.Err = adapterError(KindExpectsSimpleType)
	}
	return nil
}

func (a *IntAdapter) Done()     {}
func (a *IntAdapter) Size() int { return 1 }

// DoubleAdapter decodes a RESP3 double (",") leaf into a float64.
type DoubleAdapter struct {
	Value float64
	Null  bool
	Err   error
	got   bool
}

func (a *DoubleAdapter) Init() { *a = DoubleAdapter{} }

func (a *DoubleAdapter) OnNode(n Node) error {
	if a.got {
		a.Err = adapterError(KindNestedAggregateNotSupported)
		return nil
	}
	a.got = true
	if se, ok := isServerErrorNode(n); ok {
		a.Err = se
		return nil
	}
	switch n.Type {
	case TypeDouble:
		switch string(n.Value) {
		case "inf":
			a.Value = math.Inf(1)
		case "-inf":
			a.Value = math.Inf(-1)
		default:
			v, err := strconv.ParseFloat(string(n.Value), 64)
			if err != nil {
				a.Err = adapterError(KindNotADouble)
				return nil
			}
			a.Value = v
		}
	case TypeNull:
		a.Null = true
	default:
		a.Err = adapterError(KindExpectsSimpleType)
	}
	return nil
}

func (a *DoubleAdapter) Done()     {}
func (a *DoubleAdapter) Size() int { return 1 }

// BoolAdapter decodes a RESP3 boolean ("#") leaf.
type BoolAdapter struct {
	Value bool
	Null  bool
	Err   error
	got   bool
}

func (a *BoolAdapter) Init() { *a = BoolAdapter{} }

func (a *BoolAdapter) OnNode(n Node) error {
	if a.got {
		a.Err = adapterError(KindNestedAggregateNotSupported)
		return nil
	}
	a.got = true
	if se, ok := isServerErrorNode(n); ok {
		a.Err = se
		return nil
	}
	switch n.Type {
	case TypeBoolean:
		a.Value = len(n.Value) == 1 && n.Value[0] == 't'
	case TypeNull:
		a.Null = true
	default:
		a.Err = adapterError(KindExpectsSimpleType)
	}
	return nil
}

func (a *BoolAdapter) Done()     {}
func (a *BoolAdapter) Size() int { return 1 }

// BulkBytesAdapter decodes any simple-type leaf's raw bytes (blob_string,
// verbatim_string, simple_string, number, etc.) without interpretation. A
// null leaf yields Null=true with a nil Value.
type BulkBytesAdapter struct {
	Value []byte
	Null  bool
	Err   error
	got   bool
}

func (a *BulkBytesAdapter) Init() { *a = BulkBytesAdapter{} }

func (a *BulkBytesAdapter) OnNode(n Node) error {
	if a.got {
		a.Err = adapterError(KindNestedAggregateNotSupported)
		return nil
	}
	a.got = true
	if se, ok := isServerErrorNode(n); ok {
		a.Err = se
		return nil
	}
	switch n.Type {
	case TypeNull:
		a.Null = true
	case TypeArray, TypePush, TypeSet, TypeMap, TypeAttribute:
		a.Err = adapterError(KindExpectsSimpleType)
	default:
		a.Value = append([]byte(nil), n.Value...)
	}
	return nil
}

func (a *BulkBytesAdapter) Done()     {}
func (a *BulkBytesAdapter) Size() int { return 1 }

// BulkStringAdapter is BulkBytesAdapter with a string result; Found reports
// whether the reply was non-null and error-free.
type BulkStringAdapter struct {
	Value string
	Null  bool
	Err   error
	got   bool
}

func (a *BulkStringAdapter) Init() { *a = BulkStringAdapter{} }

func (a *BulkStringAdapter) OnNode(n Node) error {
	if a.got {
		a.Err = adapterError(KindNestedAggregateNotSupported)
		return nil
	}
	a.got = true
	if se, ok := isServerErrorNode(n); ok {
		a.Err = se
		return nil
	}
	switch n.Type {
	case TypeNull:
		a.Null = true
	case TypeArray, TypePush, TypeSet, TypeMap, TypeAttribute:
		a.Err = adapterError(KindExpectsSimpleType)
	default:
		a.Value = string(n.Value)
	}
	return nil
}

func (a *BulkStringAdapter) Done() {}

// Found reports whether the last decoded reply was non-null and
// error-free.
func (a *BulkStringAdapter) Found() bool { return a.got && a.Err == nil && !a.Null }
func (a *BulkStringAdapter) Size() int   { return 1 }

// arrayAdapter is the shared machinery for decoding a flat RESP3 aggregate
// (array/set/push) into a slice of byte slices or strings. Nested
// aggregates are rejected with nested_aggregate_not_supported, matching
// spec §4.3's enumerated kind for callers that asked for a flat container.
type arrayAdapter struct {
	depth    int
	expected int
	got      int
	err      error
	done     bool
	sink     func(Node)
}

func (a *arrayAdapter) reset(sink func(Node)) {
	*a = arrayAdapter{sink: sink}
}

func (a *arrayAdapter) onNode(n Node) {
	if a.done {
		a.err = adapterError(KindNestedAggregateNotSupported)
		return
	}
	if a.depth == 0 {
		if se, ok := isServerErrorNode(n); ok {
			a.err = se
			a.done = true
			return
		}
		switch n.Type {
		case TypeNull:
			a.done = true
		case TypeArray, TypePush, TypeSet:
			a.expected = n.Size
			a.depth = 1
			if a.expected == 0 {
				a.done = true
			}
		default:
			a.err = adapterError(KindExpectsAggregate)
			a.done = true
		}
		return
	}
	// depth == 1: flat children only.
	if n.Type.IsAggregate() {
		a.err = adapterError(KindNestedAggregateNotSupported)
		return
	}
	a.sink(n)
	a.got++
	if a.got >= a.expected {
		a.done = true
	}
}

// BytesArrayAdapter decodes a flat array/set/push of blob values into
// [][]byte.
type BytesArrayAdapter struct {
	Value [][]byte
	Err   error
	inner arrayAdapter
}

func (a *BytesArrayAdapter) Init() {
	a.Value = nil
	a.Err = nil
	a.inner.reset(func(n Node) {
		if n.Type == TypeNull {
			a.Value = append(a.Value, nil)
			return
		}
		a.Value = append(a.Value, append([]byte(nil), n.Value...))
	})
}

func (a *BytesArrayAdapter) OnNode(n Node) error {
	a.inner.onNode(n)
	if a.inner.err != nil {
		a.Err = a.inner.err
	}
	return nil
}

func (a *BytesArrayAdapter) Done()     {}
func (a *BytesArrayAdapter) Size() int { return 1 }

// StringArrayAdapter decodes a flat array/set/push of blob values into
// []string.
type StringArrayAdapter struct {
	Value []string
	Err   error
	inner arrayAdapter
}

func (a *StringArrayAdapter) Init() {
	a.Value = nil
	a.Err = nil
	a.inner.reset(func(n Node) {
		if n.Type == TypeNull {
			a.Value = append(a.Value, "")
			return
		}
		a.Value = append(a.Value, string(n.Value))
	})
}

func (a *StringArrayAdapter) OnNode(n Node) error {
	a.inner.onNode(n)
	if a.inner.err != nil {
		a.Err = a.inner.err
	}
	return nil
}

func (a *StringArrayAdapter) Done()     {}
func (a *StringArrayAdapter) Size() int { return 1 }

// TupleAdapter combines N independently-typed adapters into one, feeding
// reply i of a pipeline to element i's adapter. Size returns N; nothing in
// the package checks it against a request's expected-reply count before
// submission.
type TupleAdapter struct {
	elems []Adapter
	idx   int
}

// NewTupleAdapter returns a TupleAdapter over elems, consumed in order.
func NewTupleAdapter(elems ...Adapter) *TupleAdapter {
	return &TupleAdapter{elems: elems}
}

func (t *TupleAdapter) Init() {
	if t.idx < len(t.elems) {
		t.elems[t.idx].Init()
	}
}

func (t *TupleAdapter) OnNode(n Node) error {
	if t.idx >= len(t.elems) {
		return nil
	}
	return t.elems[t.idx].OnNode(n)
}

func (t *TupleAdapter) Done() {
	if t.idx < len(t.elems) {
		t.elems[t.idx].Done()
		t.idx++
	}
}

func (t *TupleAdapter) Size() int { return len(t.elems) }

// At returns the i-th element adapter, for reading results after exec.
func (t *TupleAdapter) At(i int) Adapter { return t.elems[i] }
