package scoring

import (
	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// Score turns a category template into the scored document of one model.
//
// The first template level names the record domains. A template node without
// children is a leaf and collects the records of its domain tagged with the
// leaf key; every other node aggregates the deduplicated questions of its
// descendants. The root covers all records.
func Score(template *domain.Node, records []Record) *domain.Node {
	scores := make(map[string]float64, len(records))
	for _, record := range records {
		scores[record.key()] = record.cappedScore()
	}

	root := domain.NewNode()
	ids := make([]any, 0, len(records))
	total := 0.0
	for _, record := range records {
		ids = append(ids, record.ID)
		total += record.cappedScore()
	}
	root.Set(domain.FieldDataSize, float64(len(records)))
	root.Set(domain.FieldScore, mean(total, len(records)))
	root.Set(domain.FieldQuesIDs, ids)

	for _, domainKey := range template.Keys() {
		value, _ := template.Get(domainKey)
		subtree, ok := value.(*domain.Node)
		if !ok {
			continue
		}
		inDomain := make([]Record, 0)
		for _, record := range records {
			if record.Domain == domainKey {
				inDomain = append(inDomain, record)
			}
		}
		node, _ := aggregate(subtree, inDomain, scores)
		root.Set(domainKey, node)
	}
	return root
}

type questionSet struct {
	order []Record
	seen  map[string]struct{}
}

func newQuestionSet() *questionSet {
	return &questionSet{seen: make(map[string]struct{})}
}

func (q *questionSet) add(record Record) {
	key := record.key()
	if _, ok := q.seen[key]; ok {
		return
	}
	q.seen[key] = struct{}{}
	q.order = append(q.order, record)
}

func aggregate(template *domain.Node, records []Record, scores map[string]float64) (*domain.Node, *questionSet) {
	union := newQuestionSet()
	children := make([]*domain.Node, 0, template.Len())
	keys := make([]string, 0, template.Len())

	for _, key := range template.Keys() {
		value, _ := template.Get(key)
		child, ok := value.(*domain.Node)
		if !ok {
			continue
		}
		var (
			scored    *domain.Node
			questions *questionSet
		)
		if child.Len() == 0 {
			scored, questions = leaf(key, records)
		} else {
			scored, questions = aggregate(child, records, scores)
		}
		for _, record := range questions.order {
			union.add(record)
		}
		keys = append(keys, key)
		children = append(children, scored)
	}

	total := 0.0
	ids := make([]any, 0, len(union.order))
	for _, record := range union.order {
		total += scores[record.key()]
		ids = append(ids, record.ID)
	}
	node := domain.NewNode()
	node.Set(domain.FieldDataSize, float64(len(union.order)))
	node.Set(domain.FieldScore, mean(total, len(union.order)))
	node.Set(domain.FieldQuesIDs, ids)
	for i, key := range keys {
		node.Set(key, children[i])
	}
	return node, union
}

func leaf(tag string, records []Record) (*domain.Node, *questionSet) {
	linked := newQuestionSet()
	ids := make([]any, 0)
	total := 0.0
	count := 0
	for _, record := range records {
		if !record.hasTag(tag) {
			continue
		}
		linked.add(record)
		ids = append(ids, record.ID)
		total += record.cappedScore()
		count++
	}
	node := domain.NewNode()
	node.Set(domain.FieldDataSize, float64(count))
	node.Set(domain.FieldScore, mean(total, count))
	node.Set(domain.FieldQuesIDs, ids)
	return node, linked
}

func mean(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
