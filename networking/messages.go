package networking

import (
	"encoding/binary"
	"fmt"
	"go_secure_copy/constants"
)

// Header contains static message parts
type Header struct {
	Version     uint8
	Opcode      uint16
	PayloadSize uint32
	// Followed by PayloadSize * bytes payload.
}

// Request is an outgoing message, always prefixed with the client id
type Request struct {
	ClientID [constants.CLIENT_ID_SIZE]byte
	Header
	Payload []byte
}

// Response is an incoming message. Servers do not echo the client id in the header.
type Response struct {
	Header
	Payload []byte
}

// RequestToBytes encodes request to slice of bytes. PayloadSize is always taken from the payload.
func RequestToBytes(req *Request) ([]byte, error) {
	if uint64(len(req.Payload)) > 0xffffffff {
		return nil, fmt.Errorf("payload size %d does not fit in header", len(req.Payload))
	}
	req.PayloadSize = uint32(len(req.Payload))

	out := make([]byte, constants.REQUEST_HEADER_SIZE, constants.REQUEST_HEADER_SIZE+len(req.Payload))
	copy(out[0:16], req.ClientID[:])
	out[16] = req.Version
	binary.BigEndian.PutUint16(out[17:19], req.Opcode)
	binary.BigEndian.PutUint32(out[19:23], req.PayloadSize)

	return append(out, req.Payload...), nil
}

// DecodeResponse decodes slice of bytes to Response. The payload is everything after
// the header; PayloadSize is reported as sent and is not checked here, see Validate.
func DecodeResponse(message []byte) (*Response, error) {
	if len(message) < constants.RESPONSE_HEADER_SIZE {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d",
			ErrMalformedFrame, len(message), constants.RESPONSE_HEADER_SIZE)
	}

	resp := &Response{
		Header: Header{
			Version:     message[0],
			Opcode:      binary.BigEndian.Uint16(message[1:3]),
			PayloadSize: binary.BigEndian.Uint32(message[3:7]),
		},
	}
	resp.Payload = append([]byte(nil), message[constants.RESPONSE_HEADER_SIZE:]...)

	return resp, nil
}

// Validate checks that the announced payload size was actually received.
// Extra trailing bytes are tolerated; the received length is the ground truth.
func (r *Response) Validate() error {
	if int64(r.PayloadSize) > int64(len(r.Payload)) {
		return fmt.Errorf("%w: header announces %d payload bytes, got %d",
			ErrMalformedFrame, r.PayloadSize, len(r.Payload))
	}
	return nil
}

// PadName converts name to a fixed 255 byte null terminated slot.
// Names longer than 254 bytes are truncated.
func PadName(name string) []byte {
	slot := make([]byte, constants.NAME_FIELD_SIZE)
	n := len(name)
	if n > constants.MAX_NAME_LENGTH {
		n = constants.MAX_NAME_LENGTH
	}
	copy(slot, name[:n])
	return slot
}

// UnpadName returns the bytes before the first null terminator.
func UnpadName(slot []byte) string {
	for i, b := range slot {
		if b == 0 {
			return string(slot[:i])
		}
	}
	return string(slot)
}
