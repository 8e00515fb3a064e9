package scoring

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// MaxRecordScore caps a single evaluation score before averaging.
const MaxRecordScore = 500

// Record is one evaluated question of a model run.
type Record struct {
	ID       any
	Score    float64
	Domain   string
	TypeTags map[string][]string
}

type recordLine struct {
	ID       json.RawMessage `json:"id"`
	Score    float64         `json:"score"`
	MetaData struct {
		Domain   string              `json:"domain"`
		TypeTags map[string][]string `json:"type_tags"`
	} `json:"meta_data"`
}

// ParseRecords reads JSONL evaluation records. Blank lines are skipped.
func ParseRecords(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw recordLine
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse records", fmt.Errorf("line %d: %w", lineNo, err))
		}
		id, err := decodeID(raw.ID)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse records", fmt.Errorf("line %d: %w", lineNo, err))
		}
		records = append(records, Record{
			ID:       id,
			Score:    raw.Score,
			Domain:   raw.MetaData.Domain,
			TypeTags: raw.MetaData.TypeTags,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return records, nil
}

// decodeID keeps numeric ids numeric so that ques_ids round-trip unchanged.
func decodeID(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing id")
	}
	var id any
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	switch id.(type) {
	case string, float64:
		return id, nil
	default:
		return nil, fmt.Errorf("id must be a string or a number, got %s", raw)
	}
}

func (r Record) key() string {
	switch id := r.ID.(type) {
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case string:
		return "s:" + id
	default:
		return fmt.Sprint(id)
	}
}

func (r Record) cappedScore() float64 {
	if r.Score > MaxRecordScore {
		return MaxRecordScore
	}
	return r.Score
}

func (r Record) hasTag(tag string) bool {
	for _, tags := range r.TypeTags {
		for _, candidate := range tags {
			if candidate == tag {
				return true
			}
		}
	}
	return false
}
