package networking

import (
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"io"
	"time"
)

// Stream is a blocking duplex byte stream with deadlines. net.Conn satisfies it.
type Stream interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Transport moves whole messages across a Stream in bounded chunks
type Transport struct {
	ChunkSize int
	// Timeout bounds every single read or write call. Zero means no deadline.
	Timeout time.Duration
	// OnSent is called after every chunk with bytes written so far and the message length.
	OnSent func(sent, total int)
}

// NewTransport returns a transport with the protocol chunk size
func NewTransport(timeout time.Duration) *Transport {
	return &Transport{
		ChunkSize: constants.NETWORK_CHUNK_SIZE,
		Timeout:   timeout,
	}
}

func (t *Transport) chunkSize() int {
	if t.ChunkSize <= 0 {
		return constants.NETWORK_CHUNK_SIZE
	}
	return t.ChunkSize
}

func (t *Transport) deadline() time.Time {
	if t.Timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(t.Timeout)
}

// Send writes data in chunks of at most ChunkSize bytes. A failed write aborts the
// send; partial messages are never resumed.
func (t *Transport) Send(stream Stream, data []byte) error {
	size := t.chunkSize()
	sent := 0

	for sent < len(data) {
		end := sent + size
		if end > len(data) {
			end = len(data)
		}
		if err := stream.SetWriteDeadline(t.deadline()); err != nil {
			return fmt.Errorf("%w: set write deadline: %v", ErrTransport, err)
		}
		n, err := stream.Write(data[sent:end])
		sent += n
		if err != nil {
			return fmt.Errorf("%w: write after %d/%d bytes: %v", ErrTransport, sent, len(data), err)
		}
		if t.OnSent != nil {
			t.OnSent(sent, len(data))
		}
	}

	return nil
}

// Receive reads one message. A read shorter than ChunkSize or end of stream ends the
// message; end of stream before any byte is a transport error. A message whose length
// is an exact multiple of ChunkSize leaves Receive waiting for the next read.
func (t *Transport) Receive(stream Stream) ([]byte, error) {
	buf := make([]byte, t.chunkSize())
	var message []byte

	for {
		if err := stream.SetReadDeadline(t.deadline()); err != nil {
			return nil, fmt.Errorf("%w: set read deadline: %v", ErrTransport, err)
		}
		n, err := stream.Read(buf)
		message = append(message, buf[:n]...)

		if errors.Is(err, io.EOF) {
			// Peer closed before sending anything.
			if len(message) == 0 {
				return nil, fmt.Errorf("%w: %v", ErrTransport, io.ErrUnexpectedEOF)
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read after %d bytes: %v", ErrTransport, len(message), err)
		}
		if n < len(buf) {
			break
		}
	}

	return message, nil
}
