package worker

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/exec"
)

// Frame types.
const (
	TypeExec      = "exec"
	TypeCancel    = "cancel"
	TypeShutdown  = "shutdown"
	TypeResult    = "result"
	TypeCancelled = "cancelled"
	TypeError     = "error"
)

// Result kinds.
const (
	KindQuery    = "query"
	KindNonQuery = "non_query"
)

// Message is one frame of the worker protocol. The config travels with
// secrets included; the pipe never leaves the process boundary.
type Message struct {
	Type string `json:"type"`
	ID   int64  `json:"id,omitempty"`

	// exec
	Query   string                   `json:"query,omitempty"`
	Config  *config.ConnectionConfig `json:"config,omitempty"`
	DBType  string                   `json:"db_type,omitempty"`
	MaxRows int                      `json:"max_rows,omitempty"`

	// result
	Kind      string          `json:"kind,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	ElapsedMS int64           `json:"elapsed_ms,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// NewResultMessage encodes a statement result.
func NewResultMessage(id int64, res exec.Result, elapsedMS int64) (*Message, error) {
	msg := &Message{Type: TypeResult, ID: id, ElapsedMS: elapsedMS}
	switch res.(type) {
	case exec.QueryResult:
		msg.Kind = KindQuery
	case exec.NonQueryResult:
		msg.Kind = KindNonQuery
	default:
		return nil, errors.Newf("unsupported result type %T", res)
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	msg.Result = payload
	return msg, nil
}

// DecodeResult reverses NewResultMessage.
func (m *Message) DecodeResult() (exec.Result, error) {
	switch m.Kind {
	case KindQuery:
		var r exec.QueryResult
		if err := json.Unmarshal(m.Result, &r); err != nil {
			return nil, err
		}
		return r, nil
	case KindNonQuery:
		var r exec.NonQueryResult
		if err := json.Unmarshal(m.Result, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, errors.Newf("unknown result kind %q", m.Kind)
	}
}
