package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type AnswerKind uint8

const (
	AnswerNull AnswerKind = iota
	AnswerText
	AnswerNumber
)

// AnswerValue is a single submitted value: text or a number. Dates travel as
// ISO-8601 text and are checked against the field type during validation.
type AnswerValue struct {
	kind   AnswerKind
	text   string
	number float64
}

func Text(s string) AnswerValue {
	return AnswerValue{kind: AnswerText, text: s}
}

func Number(f float64) AnswerValue {
	return AnswerValue{kind: AnswerNumber, number: f}
}

func (v AnswerValue) Kind() AnswerKind { return v.kind }

// IsBlank is true for null and whitespace-only text.
func (v AnswerValue) IsBlank() bool {
	switch v.kind {
	case AnswerText:
		return strings.TrimSpace(v.text) == ""
	case AnswerNumber:
		return false
	default:
		return true
	}
}

// Float parses the value as a number. Text is accepted when it holds a finite number.
func (v AnswerValue) Float() (float64, error) {
	switch v.kind {
	case AnswerNumber:
		return v.number, nil
	case AnswerText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a finite number", v.text)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value is empty")
	}
}

func (v AnswerValue) String() string {
	switch v.kind {
	case AnswerText:
		return v.text
	case AnswerNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	default:
		return ""
	}
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AnswerText:
		return json.Marshal(v.text)
	case AnswerNumber:
		return []byte(strconv.FormatFloat(v.number, 'f', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Text(strconv.FormatBool(b))
	case '{', '[':
		return fmt.Errorf("answer values must be text or numbers")
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid answer value %s", data)
		}
		*v = Number(f)
	}
	return nil
}

// Answers maps template field ids to submitted values.
type Answers map[string]AnswerValue

// Get returns the value for a field id; a missing key yields a null value.
func (a Answers) Get(id string) AnswerValue {
	return a[id]
}

// NonBlank counts values that carry content.
func (a Answers) NonBlank() int {
	n := 0
	for _, v := range a {
		if !v.IsBlank() {
			n++
		}
	}
	return n
}
