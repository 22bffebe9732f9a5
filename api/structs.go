package api

import (
	"context"
	"encoding/json"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/qri-io/jsonschema"
)

// MaxBatchSize is the maximal number of addresses in a single POST
// request.
const MaxBatchSize = 100

// Resolver is a part of sleuthlib.Resolver which is used by HTTP
// handlers.
type Resolver interface {
	Resolve(context.Context, string) (sleuthlib.ResolveResult, error)
	ResolveAll(context.Context, []string) ([]sleuthlib.BatchResult, error)
	UsageStats() []*sleuthlib.UsageStats
}

var postRequestJSONSchema = func() *jsonschema.Schema {
	data := `{
        "type": "object",
        "required": [
            "ips"
        ],
        "additionalProperties": false,
        "properties": {
            "ips": {
                "type": "array",
                "minItems": 1,
                "maxItems": 100,
                "items": {
                    "type": "string",
                    "minLength": 2,
                    "maxLength": 64
                }
            }
        }
    }`

	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}()

type postRequest struct {
	IPs []string `json:"ips"`
}

type postResponseItem struct {
	Address string                 `json:"ip"`
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type postResponse struct {
	Success bool               `json:"success"`
	Results []postResponseItem `json:"results"`
}

type statsResponse struct {
	Success bool                    `json:"success"`
	Results []*sleuthlib.UsageStats `json:"results"`
}
