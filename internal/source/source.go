package source

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMissingBranch is returned when a named branch cannot be bound.
var ErrMissingBranch = errors.New("missing branch")

// Kind is the element type of a branch.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MissingBranchError names the branch that could not be bound.
type MissingBranchError struct {
	Name string
	Kind Kind
}

func (e *MissingBranchError) Error() string {
	return fmt.Sprintf("missing %s branch %q", e.Kind, e.Name)
}

func (e *MissingBranchError) Unwrap() error { return ErrMissingBranch }

// Element is the set of branch element types.
type Element interface {
	~float32 | ~int32 | ~bool
}

// Array is a read-only, index-addressed view of one branch of the current
// event. At panics on an out-of-range index instead of wrapping around.
type Array[T Element] struct {
	name string
	get  func() []T
}

// NewArray returns an Array over fixed data. It is mostly useful in tests.
func NewArray[T Element](name string, data []T) *Array[T] {
	return &Array[T]{name: name, get: func() []T { return data }}
}

// Name returns the branch name.
func (a *Array[T]) Name() string { return a.name }

// Len returns the number of entries in the current event.
func (a *Array[T]) Len() int { return len(a.get()) }

// At returns entry i of the current event.
func (a *Array[T]) At(i int) T {
	data := a.get()
	if i < 0 || i >= len(data) {
		panic(fmt.Sprintf("source: %s index %d out of range [0,%d)", a.name, i, len(data)))
	}
	return data[i]
}

// Source binds named branches of the per-event input.
type Source interface {
	Floats(name string) (*Array[float32], error)
	Ints(name string) (*Array[int32], error)
	Bools(name string) (*Array[bool], error)
}

// Event is one event's worth of flat branch data.
type Event struct {
	Run   uint64               `json:"run"`
	Lumi  uint64               `json:"lumi"`
	Event uint64               `json:"event"`
	NPU   float32              `json:"n_pu,omitempty"`
	Float map[string][]float32 `json:"floats,omitempty"`
	Int   map[string][]int32   `json:"ints,omitempty"`
	Bool  map[string][]bool    `json:"bools,omitempty"`
}

// Schema maps branch names to their element kind.
type Schema map[string]Kind

// SchemaOf returns the schema implied by an event's branches.
func SchemaOf(e *Event) Schema {
	s := make(Schema, len(e.Float)+len(e.Int)+len(e.Bool))
	for name := range e.Float {
		s[name] = KindFloat
	}
	for name := range e.Int {
		s[name] = KindInt
	}
	for name := range e.Bool {
		s[name] = KindBool
	}
	return s
}

// Names returns the branch names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EventSource serves branches of whichever Event was last passed to SetEvent.
// The schema is fixed at construction; binding is checked against it.
type EventSource struct {
	schema  Schema
	current *Event
}

// NewEventSource returns a source for events following schema.
func NewEventSource(schema Schema) *EventSource {
	return &EventSource{schema: schema}
}

// SetEvent makes e the current event. Every schema branch must be present.
func (s *EventSource) SetEvent(e *Event) error {
	for name, kind := range s.schema {
		var ok bool
		switch kind {
		case KindFloat:
			_, ok = e.Float[name]
		case KindInt:
			_, ok = e.Int[name]
		case KindBool:
			_, ok = e.Bool[name]
		}
		if !ok {
			return fmt.Errorf("event %d/%d/%d: %w", e.Run, e.Lumi, e.Event, &MissingBranchError{Name: name, Kind: kind})
		}
	}
	s.current = e
	return nil
}

// Event returns the current event, or nil before the first SetEvent.
func (s *EventSource) Event() *Event { return s.current }

// Schema returns the source schema.
func (s *EventSource) Schema() Schema { return s.schema }

func (s *EventSource) check(name string, kind Kind) error {
	if k, ok := s.schema[name]; !ok || k != kind {
		return &MissingBranchError{Name: name, Kind: kind}
	}
	return nil
}

// Floats binds a float branch.
func (s *EventSource) Floats(name string) (*Array[float32], error) {
	if err := s.check(name, KindFloat); err != nil {
		return nil, err
	}
	return &Array[float32]{name: name, get: func() []float32 {
		if s.current == nil {
			return nil
		}
		return s.current.Float[name]
	}}, nil
}

// Ints binds an integer branch.
func (s *EventSource) Ints(name string) (*Array[int32], error) {
	if err := s.check(name, KindInt); err != nil {
		return nil, err
	}
	return &Array[int32]{name: name, get: func() []int32 {
		if s.current == nil {
			return nil
		}
		return s.current.Int[name]
	}}, nil
}

// Bools binds a boolean branch.
func (s *EventSource) Bools(name string) (*Array[bool], error) {
	if err := s.check(name, KindBool); err != nil {
		return nil, err
	}
	return &Array[bool]{name: name, get: func() []bool {
		if s.current == nil {
			return nil
		}
		return s.current.Bool[name]
	}}, nil
}
