package ml

import (
	"encoding/json"
	"fmt"
	"sort"
)

// UnseenCode is the vector value for a category the encoder never saw.
// Real codes are 0..k-1, so the sentinel never collides with a category.
const UnseenCode = -1

// Encoder maps category strings to dense codes in first-seen order.
type Encoder struct {
	classes []string
	index   map[string]int
}

func NewEncoder(classes ...string) *Encoder {
	e := &Encoder{index: make(map[string]int, len(classes))}
	for _, c := range classes {
		e.add(c)
	}
	return e
}

func (e *Encoder) add(v string) int {
	if code, ok := e.index[v]; ok {
		return code
	}
	code := len(e.classes)
	e.classes = append(e.classes, v)
	e.index[v] = code
	return code
}

// FitOrReuse returns the code of every value, appending categories not seen
// before. Existing codes never change.
func (e *Encoder) FitOrReuse(values []string) []int {
	codes := make([]int, len(values))
	for i, v := range values {
		codes[i] = e.add(v)
	}
	return codes
}

// Encode returns the code for v; ok is false on a miss.
func (e *Encoder) Encode(v string) (code int, ok bool) {
	code, ok = e.index[v]
	return code, ok
}

func (e *Encoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("%w: %d (classes=%d)", ErrUnknownCode, code, len(e.classes))
	}
	return e.classes[code], nil
}

func (e *Encoder) Len() int { return len(e.classes) }

func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *Encoder) Clone() *Encoder {
	return NewEncoder(e.classes...)
}

func (e *Encoder) MarshalJSON() ([]byte, error) {
	classes := e.classes
	if classes == nil {
		classes = []string{}
	}
	return json.Marshal(struct {
		Classes []string `json:"classes"`
	}{classes})
}

func (e *Encoder) UnmarshalJSON(data []byte) error {
	var doc struct {
		Classes []string `json:"classes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*e = *NewEncoder(doc.Classes...)
	if len(e.classes) != len(doc.Classes) {
		return fmt.Errorf("encoder has duplicate classes")
	}
	return nil
}

// Registry holds one encoder per categorical column.
type Registry struct {
	encoders map[string]*Encoder
}

func NewRegistry() *Registry {
	return &Registry{encoders: make(map[string]*Encoder)}
}

// Clone returns a deep copy so training can extend encoders without
// touching the registry that live predictions read.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for col, e := range r.encoders {
		out.encoders[col] = e.Clone()
	}
	return out
}

func (r *Registry) FitOrReuse(col string, values []string) []int {
	e, ok := r.encoders[col]
	if !ok {
		e = NewEncoder()
		r.encoders[col] = e
	}
	return e.FitOrReuse(values)
}

func (r *Registry) Has(col string) bool {
	_, ok := r.encoders[col]
	return ok
}

// Encode returns the code as a feature value. A miss yields UnseenCode and
// ok=false.
func (r *Registry) Encode(col, v string) (float64, bool) {
	e, ok := r.encoders[col]
	if !ok {
		return UnseenCode, false
	}
	code, ok := e.Encode(v)
	if !ok {
		return UnseenCode, false
	}
	return float64(code), true
}

func (r *Registry) Decode(col string, code int) (string, error) {
	e, ok := r.encoders[col]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	return e.Decode(code)
}

func (r *Registry) Encoder(col string) (*Encoder, bool) {
	e, ok := r.encoders[col]
	return e, ok
}

func (r *Registry) Columns() []string {
	cols := make([]string, 0, len(r.encoders))
	for c := range r.encoders {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.encoders)
}

func (r *Registry) UnmarshalJSON(data []byte) error {
	encoders := make(map[string]*Encoder)
	if err := json.Unmarshal(data, &encoders); err != nil {
		return err
	}
	r.encoders = encoders
	return nil
}
