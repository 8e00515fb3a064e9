package domain

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, raw string) *Node {
	t.Helper()
	node, err := ParseDocument([]byte(raw))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	return node
}

func TestParseDocumentKeepsKeyOrder(t *testing.T) {
	node := mustParse(t, `{"zeta":{"b":{},"a":{}},"score":0.5,"alpha":{},"data_size":3}`)

	if got, want := node.Keys(), []string{"zeta", "score", "alpha", "data_size"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if got, want := node.ChildKeys(), []string{"zeta", "alpha"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ChildKeys() = %v, want %v", got, want)
	}
	if got, want := node.Child("zeta").ChildKeys(), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("nested ChildKeys() = %v, want %v", got, want)
	}
}

func TestParseDocumentDuplicateKeyKeepsFirstPosition(t *testing.T) {
	node := mustParse(t, `{"a":{"score":1},"b":{},"a":{"score":2}}`)

	if got, want := node.Keys(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if got := node.Child("a").Score(); got != 2 {
		t.Fatalf("expected last value to win, got score %v", got)
	}
}

func TestParseDocumentRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"text"`, `{"a":`, ``} {
		if _, err := ParseDocument([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseDocumentUnescapesKeysAndValues(t *testing.T) {
	node := mustParse(t, `{"Q&A":{"note":"line\nbreak","tags":["x",1,true,null]}}`)

	child := node.Child("Q&A")
	note, _ := child.Get("note")
	if note != "line\nbreak" {
		t.Fatalf("expected unescaped value, got %q", note)
	}
	tags, _ := child.Get("tags")
	if got, want := tags, []any{"x", float64(1), true, nil}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tags = %#v, want %#v", got, want)
	}
}

func TestDataSizeDisplay(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{`{"data_size":7.4}`, 7},
		{`{"data_size":7}`, 7},
		{`{}`, 0},
		{`{"data_size":7.5}`, 8},
		{`{"data_size":-2.5}`, -2},
		{`{"data_size":"7"}`, 0},
		{`{"data_size":0}`, 0},
		{`{"data_size":1e300}`, math.MaxInt64},
		{`{"data_size":-1e300}`, math.MinInt64},
		{`{"data_size":9.3e18}`, math.MaxInt64},
		{`{"data_size":4503599627370497}`, 4503599627370497},
	}
	for _, tc := range cases {
		if got := mustParse(t, tc.raw).DataSize(); got != tc.want {
			t.Fatalf("DataSize(%s) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestScoreDefaultsToZero(t *testing.T) {
	if got := mustParse(t, `{"score":"high"}`).Score(); got != 0 {
		t.Fatalf("expected non-numeric score to be 0, got %v", got)
	}
	if got := mustParse(t, `{"score":0.875}`).Score(); got != 0.875 {
		t.Fatalf("expected numeric score, got %v", got)
	}
}

func TestReservedOnlyNodeIsLeaf(t *testing.T) {
	node := mustParse(t, `{"ranking":3,"ques_ids":[1,2]}`)
	if keys := node.ChildKeys(); len(keys) != 0 {
		t.Fatalf("expected no displayable children, got %v", keys)
	}
}

func TestRankingTreatsZeroAndMissingAsUnranked(t *testing.T) {
	if _, ok := mustParse(t, `{"ranking":0}`).Ranking(); ok {
		t.Fatalf("ranking 0 must be unranked")
	}
	if _, ok := mustParse(t, `{}`).Ranking(); ok {
		t.Fatalf("missing ranking must be unranked")
	}
	if got, ok := mustParse(t, `{"ranking":2}`).Ranking(); !ok || got != 2 {
		t.Fatalf("Ranking() = %v, %v", got, ok)
	}
}

func TestResolvePath(t *testing.T) {
	node := mustParse(t, `{"ranking":1,"Code":{"ranking":4,"Python":{"ranking":2},"score":0.3}}`)

	got, ok := node.Resolve("Code.Python")
	if !ok {
		t.Fatalf("expected Code.Python to resolve")
	}
	if r, _ := got.Ranking(); r != 2 {
		t.Fatalf("expected ranking 2, got %v", r)
	}
	if _, ok := node.Resolve("Code.Rust"); ok {
		t.Fatalf("missing segment must not resolve")
	}
	if _, ok := node.Resolve("Code.score.deeper"); ok {
		t.Fatalf("scalar segment must not resolve")
	}
	root, ok := node.Resolve("")
	if !ok || root != node {
		t.Fatalf("empty path must resolve to the node itself")
	}
}

func TestNodeMarshalJSONKeepsOrder(t *testing.T) {
	node := mustParse(t, `{"b":{"y":1,"x":2},"a":1}`)
	out, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"b":{"y":1,"x":2},"a":1}` {
		t.Fatalf("unexpected json %s", out)
	}
}
