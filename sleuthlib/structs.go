package sleuthlib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Stage is a step of resolution pipeline.
type Stage string

const (
	StageCache     Stage = "cache"
	StageAPI       Stage = "api"
	StageChallenge Stage = "challenge"
	StageScrape    Stage = "scrape"
)

// ResolveResult is an envelope returned by any successful lookup path.
// Data is an opaque provider payload, sleuthlib only ever touches its
// address field.
type ResolveResult struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
}

// WithAddress returns a shallow copy of the result where address field
// of the data is set to a given value.
func (r ResolveResult) WithAddress(addr string) ResolveResult {
	data := make(map[string]interface{}, len(r.Data)+1)

	for k, v := range r.Data {
		data[k] = v
	}

	data[ResultAddressField] = addr

	return ResolveResult{
		Success: r.Success,
		Data:    data,
	}
}

// ResultAddressField is a name of the field in data which contains IP
// address.
const ResultAddressField = "ip"

// NewSuccessResult wraps payload into a successful envelope.
func NewSuccessResult(data map[string]interface{}) ResolveResult {
	return ResolveResult{
		Success: true,
		Data:    data,
	}
}

// DecodeJSONObject parses JSON object preserving numbers as
// json.Number. Anything which is not an object is an error.
func DecodeJSONObject(r io.Reader) (map[string]interface{}, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	rv := map[string]interface{}{}

	if err := decoder.Decode(&rv); err != nil {
		return nil, fmt.Errorf("cannot decode json object: %w", err)
	}

	if rv == nil {
		return nil, fmt.Errorf("json object is null")
	}

	return rv, nil
}

func decodeResolveResult(doc []byte) (ResolveResult, error) {
	decoder := json.NewDecoder(bytes.NewReader(doc))
	decoder.UseNumber()

	rv := ResolveResult{}

	if err := decoder.Decode(&rv); err != nil {
		return rv, fmt.Errorf("cannot decode a document: %w", err)
	}

	return rv, nil
}
