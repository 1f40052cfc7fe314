package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/semifinals/users/internal/patch"
)

// Clause requires the value at Path to equal Value.
type Clause struct {
	Path  string
	Value any
}

// Condition is a conjunction of clauses checked against the stored document
// before a patch is applied. A nil Condition always holds.
type Condition []Clause

// Where starts a condition.
func Where(path string, value any) Condition {
	return Condition{{Path: path, Value: value}}
}

// And adds a clause.
func (c Condition) And(path string, value any) Condition {
	return append(c, Clause{Path: path, Value: value})
}

// Matches evaluates the condition against a decoded document. Values are
// compared by their JSON form, so 1 and 1.0 are equal.
func (c Condition) Matches(doc map[string]any) bool {
	for _, clause := range c {
		v, ok := patch.Lookup(doc, clause.Path)
		if !ok || !jsonEqual(v, clause.Value) {
			return false
		}
	}
	return true
}

// SQL renders the condition in the Cosmos DB patch condition syntax,
// e.g. FROM c WHERE c["verified"] = false.
func (c Condition) SQL() (string, error) {
	if len(c) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(c))
	for _, clause := range c {
		segments, err := patch.SplitPath(clause.Path)
		if err != nil {
			return "", err
		}

		var ref strings.Builder
		ref.WriteString("c")
		for _, s := range segments {
			quoted, _ := json.Marshal(s)
			ref.WriteString("[")
			ref.Write(quoted)
			ref.WriteString("]")
		}

		literal, err := json.Marshal(clause.Value)
		if err != nil {
			return "", fmt.Errorf("condition value for %s: %w", clause.Path, err)
		}
		terms = append(terms, ref.String()+" = "+string(literal))
	}

	return "FROM c WHERE " + strings.Join(terms, " AND "), nil
}

func jsonEqual(a, b any) bool {
	na, errA := normalizeJSON(a)
	nb, errB := normalizeJSON(b)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
