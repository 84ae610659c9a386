/*
Package client provides a Go client for the fabric's gRPC API (pkg/api).

	cli, err := client.NewClient("127.0.0.1:8080")
	if err != nil {
		log.Fatal(err)
	}
	defer cli.Close()

	resp, err := cli.PutFile(ctx, &api.PutFileRequest{
		FileKind: types.FileKindAlbum,
		FileValue: "spotify:album:abc123",
		Content:   data,
	})

Each method dials a single RPC over conn.Invoke using the full method
name the server registers under ("/lute.FileService/PutFile" and so
on) rather than a generated stub, since pkg/api has no .proto/.pb.go
pair. Requests and responses are the same plain structs pkg/api
defines in messages.go; Client does no conversion of its own.

# Transport

The connection is plaintext gRPC, forced onto the same JSON codec the
server uses (api.ClientCodec). There is no certificate material to
load: this fabric has no cluster membership for a client identity to
authenticate against.

# Streaming

Stream opens EventService.Stream and returns an EventStream handle:

	es, err := cli.Stream(ctx, api.StreamSubscribeRequest{
		Topic: types.TopicParser, SubscriberID: "read-model",
	})
	for {
		batch, err := es.Recv()
		// process batch.Entries
		es.Ack(batch.TailCursor)
	}

Each Recv blocks for the next batch; each Ack both acknowledges the
previous batch and signals the server to produce the next one, per the
request/ack turn-taking streamHandler implements server-side.
*/
package client
