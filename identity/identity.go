// Package identity holds the client name and id assigned by the server and
// persists them, together with the private key, across runs.
package identity

import (
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidRecord = errors.New("invalid identity record")

// ClientIdentity is the name the client registered with and the id the server assigned
type ClientIdentity struct {
	Name string
	ID   uuid.UUID
}

// Bytes returns the raw 16 byte id as sent in request headers
func (c ClientIdentity) Bytes() [constants.CLIENT_ID_SIZE]byte {
	return c.ID
}

// Record is the content of me.info: name, textual id and Base64 private key
type Record struct {
	ClientIdentity
	PrivateKey string
}

// ParseRecord parses me.info text. The private key may be wrapped over several lines.
func ParseRecord(text string) (*Record, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: want at least 3 lines, got %d", ErrInvalidRecord, len(lines))
	}

	name := lines[0]
	if name == "" {
		return nil, fmt.Errorf("%w: empty client name", ErrInvalidRecord)
	}
	id, err := uuid.Parse(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: client id: %v", ErrInvalidRecord, err)
	}
	key := strings.Join(strings.Fields(strings.Join(lines[2:], "")), "")
	if key == "" {
		return nil, fmt.Errorf("%w: missing private key", ErrInvalidRecord)
	}

	return &Record{
		ClientIdentity: ClientIdentity{Name: name, ID: id},
		PrivateKey:     key,
	}, nil
}

// Lines returns the record in me.info order
func (r *Record) Lines() []string {
	return []string{r.Name, r.ID.String(), r.PrivateKey}
}
