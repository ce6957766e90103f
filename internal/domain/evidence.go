package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ScalarKind string

const (
	ScalarString ScalarKind = "string"
	ScalarNumber ScalarKind = "number"
)

// Scalar is a tagged string-or-number value. Similarity and drift math
// switch on Kind instead of probing runtime types.
type Scalar struct {
	Kind ScalarKind
	Str  string
	Num  float64
}

func (s Scalar) Equal(o Scalar) bool {
	return s.Kind == o.Kind && s.Str == o.Str && s.Num == o.Num
}

func (s Scalar) String() string {
	if s.Kind == ScalarNumber {
		return strconv.FormatFloat(s.Num, 'f', -1, 64)
	}
	return s.Str
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.Kind == ScalarNumber {
		return json.Marshal(s.Num)
	}
	return json.Marshal(s.Str)
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = Scalar{Kind: ScalarNumber, Num: num}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Scalar{Kind: ScalarString, Str: str}
		return nil
	}
	return fmt.Errorf("scalar must be a string or a number, got %s", data)
}

// Value is the asserted value of an evidence record: a single scalar or a
// list of scalars. A zero Value is empty and fails validation.
type Value struct {
	IsList bool
	Items  []Scalar
}

func StringValue(s string) Value {
	return Value{Items: []Scalar{{Kind: ScalarString, Str: s}}}
}

func NumberValue(n float64) Value {
	return Value{Items: []Scalar{{Kind: ScalarNumber, Num: n}}}
}

func ListValue(items ...Scalar) Value {
	return Value{IsList: true, Items: items}
}

func (v Value) Empty() bool { return len(v.Items) == 0 }

// Numeric returns the scalar number held by v, if v is exactly one number.
func (v Value) Numeric() (float64, bool) {
	if v.IsList || len(v.Items) != 1 || v.Items[0].Kind != ScalarNumber {
		return 0, false
	}
	return v.Items[0].Num, true
}

func (v Value) Equal(o Value) bool {
	if v.IsList != o.IsList || len(v.Items) != len(o.Items) {
		return false
	}
	for i := range v.Items {
		if !v.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if !v.IsList && len(v.Items) == 1 {
		return v.Items[0].String()
	}
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.String()
	}
	return strings.Join(parts, ", ")
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsList {
		return json.Marshal(v.Items)
	}
	if len(v.Items) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v.Items[0])
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []Scalar
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = Value{IsList: true, Items: items}
		return nil
	}
	if trimmed == "null" {
		*v = Value{}
		return nil
	}
	var s Scalar
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*v = Value{Items: []Scalar{s}}
	return nil
}

// FactKey identifies a fact slot. Subject and attribute are compared
// case-insensitively.
type FactKey struct {
	Subject   string
	Attribute string
}

func KeyOf(subject, attribute string) FactKey {
	return FactKey{
		Subject:   strings.ToLower(strings.TrimSpace(subject)),
		Attribute: strings.ToLower(strings.TrimSpace(attribute)),
	}
}

// EvidenceRecord is one immutable, timestamped assertion about a fact.
// Records are append-only; the registry is a projection over the full
// ordered history.
type EvidenceRecord struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id,omitempty"`
	Subject    string    `json:"subject"`
	Attribute  string    `json:"attribute"`
	Value      Value     `json:"value"`
	Confidence float64   `json:"confidence"`
	Scope      string    `json:"scope,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Permanent  bool      `json:"permanent,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

func (e EvidenceRecord) Key() FactKey {
	return KeyOf(e.Subject, e.Attribute)
}

// Duplicate reports whether o asserts the exact same evidence: same key,
// value, confidence and timestamp. Used for idempotent re-application.
func (e EvidenceRecord) Duplicate(o EvidenceRecord) bool {
	return e.Key() == o.Key() &&
		e.Value.Equal(o.Value) &&
		e.Confidence == o.Confidence &&
		e.Timestamp.Equal(o.Timestamp)
}
