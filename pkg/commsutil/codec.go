package commsutil

import json "github.com/goccy/go-json"

// EncodePayload renders a mapper response envelope or a resolution event as
// the JSON body of a COMMS message.
func EncodePayload(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload reads a COMMS message body, usually a mapper request
// envelope, into v.
func DecodePayload(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
