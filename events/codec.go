package events

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/casualjim/evctx/messages"
	"github.com/casualjim/evctx/pkg/uuidx"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidEvent is returned when an encoded event cannot be decoded.
var ErrInvalidEvent = errors.New("invalid event")

var eventJSON = []byte(`{"type":"event"}`)

// Resolver maps the message name found in an encoded event to a message
// kind. messages.Registry implements it.
type Resolver interface {
	Resolve(name string, id messages.ID) (messages.Message, error)
}

// Record documents the JSON form of an event. It is only used to publish
// the schema, encoding and decoding work on the raw JSON.
type Record struct {
	Type      string `json:"type" jsonschema:"enum=event"`
	ID        string `json:"id,omitempty" jsonschema:"format=uuid"`
	Message   string `json:"message" jsonschema:"description=Full name of the message kind"`
	MessageID uint32 `json:"message_id,omitempty"`
	Args      any    `json:"args,omitempty" jsonschema:"description=Arguments object or an array of them for multiple applications"`
	Policy    Policy `json:"policy,omitempty" jsonschema:"enum=check,enum=wait,enum=check_wait"`
	CreatedAt string `json:"created_at,omitempty" jsonschema:"format=date-time"`
}

var recordReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// RecordSchema returns the JSON schema of an encoded event.
func RecordSchema() *jsonschema.Schema {
	return recordReflector.Reflect(&Record{})
}

// MarshalJSON implements custom JSON marshaling for Event.
func (e *Event) MarshalJSON() ([]byte, error) {
	result := eventJSON

	var err error
	result, err = sjson.SetBytes(result, "id", e.id.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "message", fullName(e.message))
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "message_id", uint32(e.Origin()))
	if err != nil {
		return nil, err
	}

	var args []byte
	if e.multi {
		args, err = json.Marshal(e.apps)
	} else {
		args, err = e.Args().MarshalJSON()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "args", args)
	if err != nil {
		return nil, err
	}

	if e.policy != PolicyNone {
		result, err = sjson.SetBytes(result, "policy", string(e.policy))
		if err != nil {
			return nil, err
		}
	}

	return sjson.SetBytes(result, "created_at", e.createdAt.String())
}

// EncodeBatch encodes events as a JSON array.
func EncodeBatch(evs []*Event) ([]byte, error) {
	if evs == nil {
		evs = []*Event{}
	}
	return json.Marshal(evs)
}

// DecodeEvent decodes one event, resolving its message with r. Events
// without an id get a fresh identity.
func DecodeEvent(data []byte, r Resolver) (*Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json: %s", ErrInvalidEvent, data)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidEvent)
	}

	if typ := doc.Get("type"); typ.Exists() && typ.String() != "event" {
		return nil, fmt.Errorf("%w: unexpected type %q", ErrInvalidEvent, typ.String())
	}

	name := doc.Get("message")
	if name.Type != gjson.String || name.String() == "" {
		return nil, fmt.Errorf("%w: missing required field 'message'", ErrInvalidEvent)
	}
	var msgID messages.ID
	if raw := doc.Get("message_id"); raw.Exists() {
		if raw.Type != gjson.Number || raw.Num < 0 || raw.Num > math.MaxUint32 {
			return nil, fmt.Errorf("%w: invalid message_id %s", ErrInvalidEvent, raw.Raw)
		}
		msgID = messages.ID(raw.Uint())
	}
	msg, err := r.Resolve(name.String(), msgID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	id := uuidx.New()
	if raw := doc.Get("id"); raw.Exists() {
		if id, err = uuid.Parse(raw.String()); err != nil {
			return nil, fmt.Errorf("%w: invalid id: %w", ErrInvalidEvent, err)
		}
	}

	var (
		apps  []Args
		multi bool
	)
	switch args := doc.Get("args"); {
	case !args.Exists() || args.Type == gjson.Null:
		apps = []Args{{}}
	case args.IsObject():
		apps = []Args{decodeArgs(args)}
	case args.IsArray():
		multi = true
		for _, app := range args.Array() {
			if !app.IsObject() {
				return nil, fmt.Errorf("%w: args entries must be objects", ErrInvalidEvent)
			}
			apps = append(apps, decodeArgs(app))
		}
	default:
		return nil, fmt.Errorf("%w: args must be an object or an array", ErrInvalidEvent)
	}

	e := newEvent(id, msg, apps, multi)
	if raw := doc.Get("policy"); raw.Exists() {
		e.policy = Policy(raw.String())
	}
	if raw := doc.Get("created_at"); raw.Exists() {
		ts, err := strfmt.ParseDateTime(raw.String())
		if err != nil {
			return nil, fmt.Errorf("%w: invalid created_at: %w", ErrInvalidEvent, err)
		}
		e.createdAt = ts
	}
	return e, nil
}

// DecodeBatch decodes a JSON array of events or newline separated events.
func DecodeBatch(data []byte, r Resolver) ([]*Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raws [][]byte
	if data[0] == '[' {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("%w: invalid json array", ErrInvalidEvent)
		}
		for _, item := range gjson.ParseBytes(data).Array() {
			raws = append(raws, []byte(item.Raw))
		}
	} else {
		for _, line := range bytes.Split(data, []byte("\n")) {
			if line = bytes.TrimSpace(line); len(line) > 0 {
				raws = append(raws, line)
			}
		}
	}

	evs := make([]*Event, 0, len(raws))
	for i, raw := range raws {
		e, err := DecodeEvent(raw, r)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		evs = append(evs, e)
	}
	return evs, nil
}

func decodeArgs(obj gjson.Result) Args {
	var list []Arg
	obj.ForEach(func(key, value gjson.Result) bool {
		list = append(list, A(key.String(), decodeValue(value)))
		return true
	})
	return NewArgs(list...)
}

func decodeValue(v gjson.Result) any {
	if v.Type == gjson.Number && v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1<<53 {
		return v.Int()
	}
	return v.Value()
}
