package directory

import (
	jsoniter "github.com/json-iterator/go"
)

// json is a drop-in, allocation-lighter replacement for encoding/json,
// used the way the teacher's exchange clients use it for wire decoding.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

func unmarshalWireEntry(raw []byte) (wireEntry, error) {
	var e wireEntry
	err := json.Unmarshal(raw, &e)
	return e, err
}

// unmarshalBotsResponse decodes the GET /Api/Bots body: a JSON array of
// directory entries (§6).
func unmarshalBotsResponse(body []byte) ([]wireEntry, error) {
	var entries []wireEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// marshalMatchableTypes encodes a type set as the JSON array of numeric
// category codes the announcement endpoint expects (§6).
func marshalMatchableTypes(codes []int) (string, error) {
	b, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
