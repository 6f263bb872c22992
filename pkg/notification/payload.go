package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Payload is the flat field set of a webhook delivery. Values are scalars:
// string, the integer types, float64, json.Number, bool or nil.
type Payload map[string]any

// PayloadFromForm converts a form encoded body. Only the first value of a
// repeated key is kept.
func PayloadFromForm(values url.Values) Payload {
	p := make(Payload, len(values))
	for k, v := range values {
		if len(v) == 0 {
			p[k] = ""
			continue
		}
		p[k] = v[0]
	}
	return p
}

// DecodePayload parses a JSON object body. Numbers stay json.Number so they
// are signed with the digits that were sent. Nested objects and arrays are
// rejected.
func DecodePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode notification payload: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("notification payload must be a JSON object")
	}

	for k, v := range raw {
		switch v.(type) {
		case string, json.Number, bool, nil:
		default:
			return nil, fmt.Errorf("notification field %q is not a scalar", k)
		}
	}
	return Payload(raw), nil
}

// stringify is the textual form of a scalar used for signing and for the
// string accessors. Booleans follow the convention of the reference SDK:
// true is "1" and false is "".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
