package api

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is registered as a gRPC content-subtype so clients and
// servers agree on it without a shared .proto-generated package.
const jsonCodecName = "json"

// jsonCodec implements encoding.Codec over encoding/json instead of
// protobuf. Every RPC request/response in this package is a plain Go
// struct (messages.go), not a generated proto.Message: spec.md §6
// already mandates JSON for every other wire boundary (event payloads,
// embedding cache entries), so the RPC layer matches rather than
// introducing a second serialization world. Forced onto the server via
// grpc.ForceServerCodec and onto the client via grpc.ForceCodec/
// grpc.CallContentSubtype, the same way the teacher forces mTLS
// transport credentials onto every connection.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ClientCodec returns the same codec the server is forced onto, for
// pkg/client to force onto its connections in turn.
func ClientCodec() encoding.Codec {
	return jsonCodec{}
}
