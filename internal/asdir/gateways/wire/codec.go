// Package wire encodes the session protocol: length-delimited frames
// carrying msgpack-encoded request and response unions.
package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/asmap/asdird/internal/asdir/common/log"
	"github.com/asmap/asdird/internal/asdir/domain"
)

// Codec converts protocol messages to and from their binary payloads.
// Framing is handled separately (see ReadFrame/WriteFrame).
type Codec interface {
	EncodeRequest(req domain.Request) ([]byte, error)
	DecodeRequest(data []byte) (domain.Request, error)
	EncodeResponse(resp domain.Response) ([]byte, error)
	DecodeResponse(data []byte) (domain.Response, error)
}

type msgpackCodec struct {
	logger log.Logger
}

// NewMsgpackCodec returns the production codec.
func NewMsgpackCodec(logger log.Logger) Codec {
	return &msgpackCodec{logger: logger}
}

func (c *msgpackCodec) EncodeRequest(req domain.Request) ([]byte, error) {
	data, err := msgpack.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", req.Kind, err)
	}
	return data, nil
}

func (c *msgpackCodec) DecodeRequest(data []byte) (domain.Request, error) {
	var req domain.Request
	if err := msgpack.Unmarshal(data, &req); err != nil {
		return domain.Request{}, fmt.Errorf("decoding request payload: %w", err)
	}
	return req, nil
}

func (c *msgpackCodec) EncodeResponse(resp domain.Response) ([]byte, error) {
	data, err := msgpack.Marshal(&resp)
	if err != nil {
		return nil, fmt.Errorf("encoding %s response: %w", resp.Kind, err)
	}
	c.logger.Debug(map[string]any{
		"kind": resp.Kind.String(),
		"size": len(data),
	}, "encoded response payload")
	return data, nil
}

func (c *msgpackCodec) DecodeResponse(data []byte) (domain.Response, error) {
	var resp domain.Response
	if err := msgpack.Unmarshal(data, &resp); err != nil {
		return domain.Response{}, fmt.Errorf("decoding response payload: %w", err)
	}
	return resp, nil
}
