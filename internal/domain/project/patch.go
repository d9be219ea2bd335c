package project

import (
	"encoding/json"
	"strings"
)

// Patch records whether a JSON field was present at all, separately from its value.
// An absent field leaves Set false; an explicit null sets Set with a nil Value.
type Patch[T any] struct {
	Set   bool
	Value *T
}

func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Set = true

	if string(data) == "null" {
		p.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Value = &v

	return nil
}

func Set[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Value: &v}
}

func Null[T any]() Patch[T] {
	return Patch[T]{Set: true}
}

type ValidationError struct {
	Field   string
	Rule    string
	Param   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		msg := e.Message
		if msg == "" {
			msg = "failed " + e.Rule
		}
		parts = append(parts, e.Field+" "+msg)
	}
	return "invalid project update: " + strings.Join(parts, "; ")
}
