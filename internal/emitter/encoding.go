package emitter

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/pipeline"
)

// Encoder turns an event into a message payload.
type Encoder func(pipeline.Event) ([]byte, error)

// EncoderFor returns the encoder for a configured encoding name.
func EncoderFor(encoding string) (Encoder, error) {
	switch encoding {
	case "", "json":
		return func(ev pipeline.Event) ([]byte, error) { return json.Marshal(ev) }, nil
	case "msgpack":
		return func(ev pipeline.Event) ([]byte, error) { return msgpack.Marshal(ev) }, nil
	default:
		return nil, fmt.Errorf("emitter: unknown encoding %q", encoding)
	}
}
