package opensearch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type shardFailure struct {
	Shard  int        `json:"shard"`
	Index  string     `json:"index"`
	Reason errorCause `json:"reason"`
}

type errorBody struct {
	Error struct {
		errorCause
		FailedShards []shardFailure `json:"failed_shards"`
	} `json:"error"`
	Status int `json:"status"`
}

// APIError is a non-2xx response from the cluster.
type APIError struct {
	Status int
	Type   string
	Reason string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// parseError reads an error response. The first shard failure wins over the
// top-level reason since it names the actual cause.
func parseError(res *opensearchapi.Response) error {
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &APIError{Status: res.StatusCode, Reason: err.Error()}
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Type == "" {
		return &APIError{Status: res.StatusCode, Reason: string(raw)}
	}
	if len(body.Error.FailedShards) > 0 {
		c := body.Error.FailedShards[0].Reason
		return &APIError{Status: res.StatusCode, Type: c.Type, Reason: c.Reason}
	}
	return &APIError{Status: res.StatusCode, Type: body.Error.Type, Reason: body.Error.Reason}
}
