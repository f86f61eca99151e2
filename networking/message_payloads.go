package networking

import (
	"encoding/binary"
	"fmt"
	"go_secure_copy/constants"
)

const (
	// FileReceived (1603) payload: client id (16) | content size (4) | file name (255) | checksum (4).
	fileReceivedChecksumOffset = constants.CLIENT_ID_SIZE + 4 + constants.NAME_FIELD_SIZE
	fileReceivedMinSize        = fileReceivedChecksumOffset + 4
)

// RegisterPayload is the payload of Register and Reconnect requests
func RegisterPayload(name string) []byte {
	return PadName(name)
}

// PublicKeyPayload is the payload of SendPublicKey: name slot followed by the exported key
func PublicKeyPayload(name string, publicKey []byte) []byte {
	out := make([]byte, 0, constants.NAME_FIELD_SIZE+len(publicKey))
	out = append(out, PadName(name)...)
	return append(out, publicKey...)
}

// SendFilePayload is the payload of SendFile:
// encrypted length (4) | original length (4) | file name (255) | ciphertext
func SendFilePayload(fileName string, originalSize int, ciphertext []byte) []byte {
	out := make([]byte, 8, 8+constants.NAME_FIELD_SIZE+len(ciphertext))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(ciphertext)))
	binary.BigEndian.PutUint32(out[4:8], uint32(originalSize))
	out = append(out, PadName(fileName)...)
	return append(out, ciphertext...)
}

// ChecksumPayload is the payload of the CRC confirmation requests: raw file name bytes
func ChecksumPayload(fileName string) []byte {
	return []byte(fileName)
}

// ClientIDFromRegistration extracts the 16 byte id from a RegisterOk payload.
func ClientIDFromRegistration(payload []byte) ([constants.CLIENT_ID_SIZE]byte, error) {
	var id [constants.CLIENT_ID_SIZE]byte
	if len(payload) != constants.CLIENT_ID_SIZE {
		return id, fmt.Errorf("%w: client id is %d bytes, want %d",
			ErrMalformedFrame, len(payload), constants.CLIENT_ID_SIZE)
	}
	copy(id[:], payload)
	return id, nil
}

// EncryptedKeyFromDelivery strips the client id prefix of a key delivery payload.
func EncryptedKeyFromDelivery(payload []byte) ([]byte, error) {
	if len(payload) <= constants.CLIENT_ID_SIZE {
		return nil, fmt.Errorf("%w: key delivery payload is %d bytes",
			ErrMalformedFrame, len(payload))
	}
	return payload[constants.CLIENT_ID_SIZE:], nil
}

// ChecksumFromFileReceived reads the echoed checksum at its fixed offset (275).
// The payload must hold at least 279 bytes.
func ChecksumFromFileReceived(payload []byte) (uint32, error) {
	if len(payload) < fileReceivedMinSize {
		return 0, fmt.Errorf("%w: file received payload is %d bytes, need %d",
			ErrMalformedFrame, len(payload), fileReceivedMinSize)
	}
	return binary.BigEndian.Uint32(payload[fileReceivedChecksumOffset:fileReceivedMinSize]), nil
}
