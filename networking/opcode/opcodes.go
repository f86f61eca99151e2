package opcode

import (
	"errors"
	"fmt"
)

// ErrUnknown is returned for op codes outside the closed request/response sets.
var ErrUnknown = errors.New("unknown op code")

// Request is an op code the client sends
type Request uint16

const (
	REGISTER      Request = 825 // Register new client name
	SENDPUBLICKEY Request = 826 // Name + RSA public key
	RECONNECT     Request = 827 // Returning client with stored identity
	SENDFILE      Request = 828 // Encrypted file contents
	CRCOK         Request = 900 // Checksum matched
	CRCRETRY      Request = 901 // Checksum mismatch, file will be resent
	CRCABORT      Request = 902 // Checksum mismatch, giving up
	TERMINATE     Request = 903 // End of session
)

// Response is an op code the server sends
type Response uint16

const (
	REGISTEROK        Response = 1600 // Payload: client id
	REGISTERREJECTED  Response = 1601
	KEYDELIVERED      Response = 1602 // Payload: client id + RSA encrypted AES key
	FILERECEIVED      Response = 1603 // Payload: client id, size, name, checksum
	ACKNOWLEDGED      Response = 1604
	RECONNECTOK       Response = 1605 // Same payload as KEYDELIVERED
	RECONNECTREJECTED Response = 1606
	GENERALERROR      Response = 1607
)

var requestNames = map[Request]string{
	REGISTER:      "Register",
	SENDPUBLICKEY: "SendPublicKey",
	RECONNECT:     "Reconnect",
	SENDFILE:      "SendFile",
	CRCOK:         "CrcOk",
	CRCRETRY:      "CrcRetry",
	CRCABORT:      "CrcAbort",
	TERMINATE:     "Terminate",
}

var responseNames = map[Response]string{
	REGISTEROK:        "RegisterOk",
	REGISTERREJECTED:  "RegisterRejected",
	KEYDELIVERED:      "SymmetricKeyDelivered",
	FILERECEIVED:      "FileReceivedWithChecksum",
	ACKNOWLEDGED:      "MessageAcknowledged",
	RECONNECTOK:       "ReconnectOkKeyFollows",
	RECONNECTREJECTED: "ReconnectRejected",
	GENERALERROR:      "GeneralError",
}

func (r Request) String() string {
	if name, ok := requestNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Request(%d)", uint16(r))
}

func (r Response) String() string {
	if name, ok := responseNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Response(%d)", uint16(r))
}

// ParseResponse maps a raw op code to a known response
func ParseResponse(code uint16) (Response, error) {
	r := Response(code)
	if _, ok := responseNames[r]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknown, code)
	}
	return r, nil
}
