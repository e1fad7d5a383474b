package redis

// NodeType identifies the RESP3 data type of a parsed Node. The full RESP3
// type set from spec §3 is represented.
type NodeType int

const (
	TypeInvalid NodeType = iota
	TypeArray
	TypePush
	TypeSet
	TypeMap
	TypeAttribute
	TypeSimpleString
	TypeSimpleError
	TypeNumber
	TypeDouble
	TypeBoolean
	TypeBigNumber
	TypeNull
	TypeBlobError
	TypeVerbatimString
	TypeBlobString
	TypeStreamedStringPart
)

func (t NodeType) String() string {
	switch t {
	case TypeArray:
		return "array"
	case TypePush:
		return "push"
	case TypeSet:
		return "set"
	case TypeMap:
		return "map"
	case TypeAttribute:
		return "attribute"
	case TypeSimpleString:
		return "simple_string"
	case TypeSimpleError:
		return "simple_error"
	case TypeNumber:
		return "number"
	case TypeDouble:
		return "double"
	case TypeBoolean:
		return "boolean"
	case TypeBigNumber:
		return "big_number"
	case TypeNull:
		return "null"
	case TypeBlobError:
		return "blob_error"
	case TypeVerbatimString:
		return "verbatim_string"
	case TypeBlobString:
		return "blob_string"
	case TypeStreamedStringPart:
		return "streamed_string_part"
	default:
		return "invalid"
	}
}

// IsAggregate reports whether a NodeType opens a container with children
// (as opposed to a leaf carrying a single Value).
func (t NodeType) IsAggregate() bool {
	switch t {
	case TypeArray, TypePush, TypeSet, TypeMap, TypeAttribute:
		return true
	default:
		return false
	}
}

// Node is the parser's unit of output: a transient view into the read
// buffer, valid only until the bytes backing Value are consumed.
type Node struct {
	Type  NodeType
	Size  int // element count for aggregates, 1 for leaves
	Depth int // nesting level, 0 at top
	Value []byte
}
