package networking

import "errors"

var (
	// ErrMalformedFrame means a response was too short or internally inconsistent.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrTransport wraps any read/write failure on the stream.
	ErrTransport = errors.New("transport error")
	// ErrKeyExchange covers RSA decryption failures and bad key blobs.
	ErrKeyExchange = errors.New("key exchange failed")
	// ErrKeyStore covers reading or writing persisted identity and keys.
	ErrKeyStore = errors.New("key store error")
	// ErrKeyNotEstablished is returned when encrypting before an AES key was delivered.
	ErrKeyNotEstablished = errors.New("symmetric key not established")
	// ErrChecksumMismatch is returned when the server echoed a different checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
