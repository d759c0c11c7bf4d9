package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	ErrMalformed     = errors.New("malformed record")
	ErrUnknownRecord = errors.New("unknown record")
)

// Kind classifies an inbound record by its discriminator field
type Kind int

const (
	KindAction Kind = iota + 1
	KindCommand
	KindHello
)

// Inbound is one decoded client record. Exactly one of Action, Command or
// Hello is meaningful, selected by Kind.
type Inbound struct {
	Kind    Kind
	Action  Action
	Command Command
	Hello   Hello
}

// Decode parses one line from a participant. Verbs are upper-cased and
// whitespace-normalised; numbers may arrive as JSON numbers or strings.
func Decode(line []byte) (Inbound, error) {
	fields, err := decodeObject(line)
	if err != nil {
		return Inbound{}, err
	}

	switch {
	case fields["action"] != nil:
		var a Action
		if err := decodeInto(fields, &a); err != nil {
			return Inbound{}, err
		}
		a.Action = normalizeVerb(a.Action)
		return Inbound{Kind: KindAction, Action: a}, nil

	case fields["cmd"] != nil:
		var c Command
		if err := decodeInto(fields, &c); err != nil {
			return Inbound{}, err
		}
		c.Cmd = normalizeVerb(c.Cmd)
		c.Value = strings.TrimSpace(c.Value)
		return Inbound{Kind: KindCommand, Command: c}, nil

	case fields["type"] != nil:
		var h Hello
		if err := decodeInto(fields, &h); err != nil {
			return Inbound{}, err
		}
		if !strings.EqualFold(h.Type, TypeHello) {
			return Inbound{}, fmt.Errorf("%w: type %q", ErrUnknownRecord, h.Type)
		}
		h.Type = TypeHello
		h.Name = strings.TrimSpace(h.Name)
		return Inbound{Kind: KindHello, Hello: h}, nil
	}

	return Inbound{}, fmt.Errorf("%w: no action, cmd or type field", ErrUnknownRecord)
}

// Encode renders a server record as a single JSON line
func Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	return append(data, '\n'), nil
}

// Peek returns the type of a server record along with its raw fields, for
// clients that dispatch on type before decoding with As.
func Peek(line []byte) (string, map[string]any, error) {
	fields, err := decodeObject(line)
	if err != nil {
		return "", nil, err
	}
	typ, _ := fields["type"].(string)
	if typ == "" {
		return "", nil, fmt.Errorf("%w: missing type", ErrUnknownRecord)
	}
	return typ, fields, nil
}

// As decodes the fields returned by Peek into one of the record structs
func As(fields map[string]any, out any) error {
	return decodeInto(fields, out)
}

func decodeObject(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	return fields, nil
}

func decodeInto(fields map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       rejectBools,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// rejectBools stops weak typing from reading true as 1 or "1"
func rejectBools(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.Bool && to != reflect.Bool && to != reflect.Interface {
		return nil, fmt.Errorf("boolean %v where a %s is expected", data, to)
	}
	return data, nil
}

func normalizeVerb(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
