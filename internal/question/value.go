package question

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Tag identifies the kind of data a Value carries.
type Tag int

const (
	TagInvalid Tag = iota
	TagIndex
	TagIndexList
	TagBool
	TagInt
	TagString
)

func (t Tag) String() string {
	switch t {
	case TagInvalid:
		return "invalid"
	case TagIndex:
		return "index"
	case TagIndexList:
		return "index list"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagString:
		return "string"
	default:
		return "tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is the output of a program node. The zero Value is Invalid, the
// marker for questions that cannot be answered under the scene's dynamics.
type Value struct {
	tag  Tag
	num  int
	list []int
	flag bool
	str  string
}

// Invalid is the undecidable-answer marker.
var Invalid = Value{}

func Index(i int) Value { return Value{tag: TagIndex, num: i} }
func Bool(b bool) Value { return Value{tag: TagBool, flag: b} }
func Int(n int) Value { return Value{tag: TagInt, num: n} }
func String(s string) Value { return Value{tag: TagString, str: s} }
func Indices(idx []int) Value {
	if idx == nil {
		idx = []int{}
	}
	return Value{tag: TagIndexList, list: idx}
}

// Tag returns the kind of the value.
func (v Value) Tag() Tag { return v.tag }

// IsInvalid reports whether v is the Invalid marker.
func (v Value) IsInvalid() bool { return v.tag == TagInvalid }

func (v Value) AsIndex() (int, bool) { return v.num, v.tag == TagIndex }
func (v Value) AsIndices() ([]int, bool) { return v.list, v.tag == TagIndexList }
func (v Value) AsBool() (bool, bool) { return v.flag, v.tag == TagBool }
func (v Value) AsInt() (int, bool) { return v.num, v.tag == TagInt }
func (v Value) AsString() (string, bool) { return v.str, v.tag == TagString }

// Equal compares tag and payload. Two Invalid values are equal.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case TagIndex, TagInt:
		return v.num == o.num
	case TagIndexList:
		return slices.Equal(v.list, o.list)
	case TagBool:
		return v.flag == o.flag
	case TagString:
		return v.str == o.str
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.tag {
	case TagIndex, TagInt:
		return strconv.Itoa(v.num)
	case TagIndexList:
		parts := make([]string, len(v.list))
		for i, n := range v.list {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case TagBool:
		return strconv.FormatBool(v.flag)
	case TagString:
		return v.str
	default:
		return "INVALID"
	}
}

// MarshalJSON encodes Invalid as null and every other value as its payload.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.tag {
	case TagIndex, TagInt:
		return json.Marshal(v.num)
	case TagIndexList:
		return json.Marshal(v.list)
	case TagBool:
		return json.Marshal(v.flag)
	case TagString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}
