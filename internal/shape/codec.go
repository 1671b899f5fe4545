package shape

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingType = errors.New("shape: missing type")
	ErrUnknownType = errors.New("shape: unknown type")
	ErrInvalid     = errors.New("shape: invalid field")
)

type rectAlias Rect
type circleAlias Circle
type pencilAlias Pencil
type textAlias Text

func (r *Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*rectAlias
	}{KindRect, (*rectAlias)(r)})
}

func (c *Circle) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*circleAlias
	}{KindCircle, (*circleAlias)(c)})
}

func (p *Pencil) MarshalJSON() ([]byte, error) {
	a := (*pencilAlias)(p)
	if a.Points == nil {
		cp := *a
		cp.Points = []Point{}
		a = &cp
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*pencilAlias
	}{KindPencil, a})
}

func (t *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*textAlias
	}{KindText, (*textAlias)(t)})
}

// Decode parses one shape object and validates it.
func Decode(data []byte) (Shape, error) {
	var probe struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode shape: %w", err)
	}
	if probe.Type == nil || *probe.Type == "" {
		return nil, ErrMissingType
	}

	var s Shape
	switch Kind(*probe.Type) {
	case KindRect:
		s = &Rect{}
	case KindCircle:
		s = &Circle{}
	case KindPencil:
		s = &Pencil{}
	case KindText:
		s = &Text{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, *probe.Type)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", *probe.Type, err)
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the per-variant field constraints.
func Validate(s Shape) error {
	switch v := s.(type) {
	case *Circle:
		if v.Radius < 0 {
			return fmt.Errorf("%w: negative radius %v", ErrInvalid, v.Radius)
		}
	case *Text:
		if v.FontSize <= 0 {
			return fmt.Errorf("%w: fontSize %v", ErrInvalid, v.FontSize)
		}
	case *Pencil:
		if v.Points == nil {
			v.Points = []Point{}
		}
	}
	return nil
}

// envelope is the persisted and broadcast payload wrapping a shape.
type envelope struct {
	Shape json.RawMessage `json:"shape"`
}

// EncodeMessage renders s as the JSON string {"shape": ...} stored by the backing
// store and carried in chat frames.
func EncodeMessage(s Shape) (string, error) {
	data, err := json.Marshal(struct {
		Shape Shape `json:"shape"`
	}{s})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return string(data), nil
}

// DecodeMessage is the inverse of EncodeMessage.
func DecodeMessage(message []byte) (Shape, error) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if len(env.Shape) == 0 || string(env.Shape) == "null" {
		return nil, fmt.Errorf("decode message: %w", ErrMissingType)
	}
	return Decode(env.Shape)
}
