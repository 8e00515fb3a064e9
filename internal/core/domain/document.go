package domain

import (
	"encoding/json"
	"math"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	FieldScore    = "score"
	FieldDataSize = "data_size"
	FieldRanking  = "ranking"
	FieldQuesIDs  = "ques_ids"
)

// reservedFields never appear as children of a rendered node.
var reservedFields = map[string]struct{}{
	FieldScore:    {},
	FieldDataSize: {},
	FieldRanking:  {},
	FieldQuesIDs:  {},
}

func IsReservedField(key string) bool {
	_, ok := reservedFields[key]
	return ok
}

// Node is one object of a model document. Field order follows the source JSON.
// Values are *Node, float64, string, bool, nil or []any.
type Node struct {
	fields *orderedmap.OrderedMap[string, any]
}

func NewNode() *Node {
	return &Node{fields: orderedmap.New[string, any]()}
}

func (n *Node) Set(key string, value any) {
	if n.fields == nil {
		n.fields = orderedmap.New[string, any]()
	}
	n.fields.Set(key, value)
}

func (n *Node) Get(key string) (any, bool) {
	if n == nil || n.fields == nil {
		return nil, false
	}
	return n.fields.Get(key)
}

func (n *Node) Len() int {
	if n == nil || n.fields == nil {
		return 0
	}
	return n.fields.Len()
}

// Keys returns every own key in insertion order, reserved fields included.
func (n *Node) Keys() []string {
	if n == nil || n.fields == nil {
		return nil
	}
	keys := make([]string, 0, n.fields.Len())
	for pair := n.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// ChildKeys returns the displayable children: own keys minus the reserved fields.
func (n *Node) ChildKeys() []string {
	if n == nil || n.fields == nil {
		return nil
	}
	keys := make([]string, 0, n.fields.Len())
	for pair := n.fields.Oldest(); pair != nil; pair = pair.Next() {
		if IsReservedField(pair.Key) {
			continue
		}
		keys = append(keys, pair.Key)
	}
	return keys
}

// Child returns the nested node under key. Scalars, arrays and nulls behave
// like an empty node so that rendering never fails on odd documents.
func (n *Node) Child(key string) *Node {
	value, ok := n.Get(key)
	if !ok {
		return NewNode()
	}
	child, ok := value.(*Node)
	if !ok || child == nil {
		return NewNode()
	}
	return child
}

func (n *Node) Number(key string) (float64, bool) {
	value, ok := n.Get(key)
	if !ok {
		return 0, false
	}
	number, ok := value.(float64)
	return number, ok
}

// Score is the numeric score field, 0 when absent or not a number.
func (n *Node) Score() float64 {
	score, ok := n.Number(FieldScore)
	if !ok || math.IsNaN(score) {
		return 0
	}
	return score
}

// DataSize is the display size: integers as-is, other non-zero finite numbers
// rounded half up, everything else 0. Values beyond int64 saturate.
func (n *Node) DataSize() int64 {
	size, ok := n.Number(FieldDataSize)
	if !ok || size == 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return 0
	}
	if size != math.Trunc(size) {
		size = math.Floor(size + 0.5)
	}
	switch {
	case size >= math.MaxInt64:
		return math.MaxInt64
	case size <= math.MinInt64:
		return math.MinInt64
	}
	return int64(size)
}

// Ranking reports the ranking field when it is a non-zero number.
func (n *Node) Ranking() (float64, bool) {
	ranking, ok := n.Number(FieldRanking)
	if !ok || ranking == 0 || math.IsNaN(ranking) {
		return 0, false
	}
	return ranking, true
}

// Resolve descends one dot-separated segment at a time. The empty path is the
// node itself; a missing segment or a non-object value resolves to nothing.
func (n *Node) Resolve(path string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	if path == "" {
		return n, true
	}
	current := n
	for _, segment := range strings.Split(path, ".") {
		value, ok := current.Get(segment)
		if !ok {
			return nil, false
		}
		next, ok := value.(*Node)
		if !ok || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil || n.fields == nil {
		return []byte("{}"), nil
	}
	return n.fields.MarshalJSON()
}

func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

var _ json.Marshaler = (*Node)(nil)

type ModelEntry struct {
	Name     string `json:"name"`
	Document *Node  `json:"document"`
}
