// Package rpc serves the ledger operations over Connect.
//
// Messages are plain Go structs carried by a JSON codec, so the same types
// back the REST API, the RPC API and the client.
package rpc

import (
	"encoding/json"
	"fmt"
)

// codecName matches the Connect content subtype, application/json.
const codecName = "json"

// jsonCodec is a connect.Codec for non-protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}
