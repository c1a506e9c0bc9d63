// Package logrow converts between log endpoint rows and domain events.
//
// Rows come from a spreadsheet, so cells may be strings, numbers, booleans or
// null; Text absorbs all of them.
package logrow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/stampcard/internal/domain/model"
)

// TimeLayout is the timestamp format written on append.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Text is a loosely typed spreadsheet cell decoded as a string.
type Text string

// UnmarshalJSON accepts any JSON scalar. null decodes to "".
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return fmt.Errorf("%w: cell is not a scalar", ErrDecode)
	default:
		*t = Text(b)
	}
	return nil
}

// Row is one line of the log as exchanged with the endpoint.
type Row struct {
	Profile   Text `json:"profile"`
	UserName  Text `json:"userName"`
	Avatar    Text `json:"avatar"`
	Type      Text `json:"type"`
	StampID   Text `json:"stampId"`
	Timestamp Text `json:"timestamp"`
}

// appendRow is the shape written on append. x and y are legacy columns the
// sheet still expects; they are never read back.
type appendRow struct {
	Row
	X int `json:"x"`
	Y int `json:"y"`
}

// Batch is the decoded content of a log body.
type Batch struct {
	Events  []model.Event
	Skipped int
}

// Decode parses a log body. The body must be a JSON array; elements that are
// not objects or carry an unknown type are counted in Skipped.
func Decode(body []byte) (Batch, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Batch{}, ErrNotArray
		}
		return Batch{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw == nil {
		return Batch{}, ErrNotArray
	}

	b := Batch{Events: make([]model.Event, 0, len(raw))}
	for _, elem := range raw {
		e, ok := decodeRow(elem)
		if !ok {
			b.Skipped++
			continue
		}
		b.Events = append(b.Events, e)
	}
	return b, nil
}

func decodeRow(elem json.RawMessage) (model.Event, bool) {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 || elem[0] != '{' {
		return model.Event{}, false
	}
	var r Row
	if err := json.Unmarshal(elem, &r); err != nil {
		return model.Event{}, false
	}
	return r.Event()
}

// Event converts r into a domain event. Any profile other than "B" belongs to
// A. The second return is false for unknown types.
func (r Row) Event() (model.Event, bool) {
	kind, err := model.ParseEventKind(string(r.Type))
	if err != nil {
		return model.Event{}, false
	}
	p := model.ProfileA
	if strings.TrimSpace(string(r.Profile)) == string(model.ProfileB) {
		p = model.ProfileB
	}
	return model.Event{
		Profile:     p,
		Kind:        kind,
		Variant:     string(r.StampID),
		DisplayName: string(r.UserName),
		AvatarRef:   string(r.Avatar),
		OccurredAt:  ParseTime(string(r.Timestamp)),
	}, true
}

// Encode builds the row appended for e.
func Encode(e model.Event) Row {
	return Row{
		Profile:   Text(e.Profile),
		UserName:  Text(e.DisplayName),
		Avatar:    Text(e.AvatarRef),
		Type:      Text(e.Kind),
		StampID:   Text(e.Variant),
		Timestamp: Text(e.OccurredAt.UTC().Format(TimeLayout)),
	}
}

// Marshal returns the JSON body appended for e.
func Marshal(e model.Event) ([]byte, error) {
	return json.Marshal(appendRow{Row: Encode(e)})
}

// ParseTime reads RFC 3339 timestamps and Unix milliseconds. Anything else
// yields the zero time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
