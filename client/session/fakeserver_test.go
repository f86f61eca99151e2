package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/identity"
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"
	"io"
	"io/fs"
	"net"
	"time"
)

// memStore is an in-memory identity.Store
type memStore struct {
	record  *identity.Record
	key     string
	saveErr error
	loadErr error
}

func (m *memStore) Exists() bool { return m.record != nil || m.loadErr != nil }

func (m *memStore) Load() (*identity.Record, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.record == nil {
		return nil, fs.ErrNotExist
	}
	r := *m.record
	return &r, nil
}

func (m *memStore) Save(record *identity.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	r := *record
	m.record = &r
	return nil
}

func (m *memStore) LoadPrivateKey() (string, bool, error) {
	if m.key != "" {
		return m.key, true, nil
	}
	if m.record != nil {
		return m.record.PrivateKey, true, nil
	}
	return "", false, nil
}

func (m *memStore) SavePrivateKey(encoded string) error {
	m.key = encoded
	return nil
}

// closedPeer behaves like a TCP peer that has closed: reads hit end of stream while
// writes still succeed until the reset arrives
type closedPeer struct {
	writes int
}

func (p *closedPeer) Read([]byte) (int, error) { return 0, io.EOF }

func (p *closedPeer) Write(b []byte) (int, error) {
	p.writes++
	return len(b), nil
}

func (p *closedPeer) SetReadDeadline(time.Time) error { return nil }

func (p *closedPeer) SetWriteDeadline(time.Time) error { return nil }

// sentRequest is a request as seen by the fake server
type sentRequest struct {
	ClientID [16]byte
	Version  uint8
	Opcode   opcode.Request
	Payload  []byte
}

// fakeServer plays the server side of a net.Pipe
type fakeServer struct {
	conn     net.Conn
	received []opcode.Request

	clientKey *rsa.PublicKey
	aesKey    []byte
	iv        []byte
}

func newPipe() (net.Conn, *fakeServer) {
	client, server := net.Pipe()
	return client, &fakeServer{conn: server}
}

func (f *fakeServer) read() (*sentRequest, error) {
	f.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	hdr := make([]byte, constants.REQUEST_HEADER_SIZE)
	if _, err := io.ReadFull(f.conn, hdr); err != nil {
		return nil, err
	}
	req := &sentRequest{
		Version: hdr[16],
		Opcode:  opcode.Request(binary.BigEndian.Uint16(hdr[17:19])),
		Payload: make([]byte, binary.BigEndian.Uint32(hdr[19:23])),
	}
	copy(req.ClientID[:], hdr[:16])
	if _, err := io.ReadFull(f.conn, req.Payload); err != nil {
		return nil, err
	}
	f.received = append(f.received, req.Opcode)
	return req, nil
}

func (f *fakeServer) expect(code opcode.Request) (*sentRequest, error) {
	req, err := f.read()
	if err != nil {
		return nil, err
	}
	if req.Opcode != code {
		return req, fmt.Errorf("expected %s, got %s", code, req.Opcode)
	}
	return req, nil
}

func errUnexpected(what string, req *sentRequest) error {
	return fmt.Errorf("unexpected %s: %s from %x, %d byte payload", what, req.Opcode, req.ClientID, len(req.Payload))
}

func (f *fakeServer) respond(code opcode.Response, payload []byte) error {
	return f.respondRaw(rawResponse(uint16(code), payload))
}

func (f *fakeServer) respondRaw(raw []byte) error {
	f.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := f.conn.Write(raw)
	return err
}

func rawResponse(code uint16, payload []byte) []byte {
	out := make([]byte, constants.RESPONSE_HEADER_SIZE, constants.RESPONSE_HEADER_SIZE+len(payload))
	out[0] = 3
	binary.BigEndian.PutUint16(out[1:3], code)
	binary.BigEndian.PutUint32(out[3:7], uint32(len(payload)))
	return append(out, payload...)
}

// learnPublicKey parses the key from a SendPublicKey payload
func (f *fakeServer) learnPublicKey(payload []byte) error {
	if len(payload) <= constants.NAME_FIELD_SIZE {
		return errors.New("public key payload too short")
	}
	der, err := base64.StdEncoding.DecodeString(string(payload[constants.NAME_FIELD_SIZE:]))
	if err != nil {
		return err
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return errors.New("not an RSA key")
	}
	f.clientKey = key
	return nil
}

// keyDelivery builds a key delivery payload: client id + RSA-OAEP(key | iv)
func (f *fakeServer) keyDelivery(clientID [16]byte) ([]byte, error) {
	f.aesKey = make([]byte, constants.AES_KEY_SIZE)
	f.iv = make([]byte, constants.AES_IV_SIZE)
	rand.Read(f.aesKey)
	rand.Read(f.iv)
	plain := append(append([]byte{}, f.aesKey...), f.iv...)
	blob, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, f.clientKey, plain, nil)
	if err != nil {
		return nil, err
	}
	return append(clientID[:], blob...), nil
}

// openFile decrypts a SendFile payload and returns the file name and contents
func (f *fakeServer) openFile(payload []byte) (string, []byte, error) {
	if len(payload) < 8+constants.NAME_FIELD_SIZE {
		return "", nil, errors.New("send file payload too short")
	}
	encLen := binary.BigEndian.Uint32(payload[0:4])
	origLen := binary.BigEndian.Uint32(payload[4:8])
	name := networking.UnpadName(payload[8 : 8+constants.NAME_FIELD_SIZE])
	ciphertext := payload[8+constants.NAME_FIELD_SIZE:]
	if int(encLen) != len(ciphertext) {
		return "", nil, fmt.Errorf("encrypted length %d, got %d bytes", encLen, len(ciphertext))
	}
	block, err := aes.NewCipher(f.aesKey)
	if err != nil {
		return "", nil, err
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, f.iv).CryptBlocks(plain, ciphertext)
	plain = plain[:len(plain)-int(plain[len(plain)-1])]
	if int(origLen) != len(plain) {
		return "", nil, fmt.Errorf("original length %d, decrypted %d bytes", origLen, len(plain))
	}
	return name, plain, nil
}

// fileReceived builds the 1603 payload: client id | size | name | checksum
func fileReceived(clientID [16]byte, size int, name string, checksum uint32) []byte {
	out := append([]byte{}, clientID[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(size))
	out = append(out, networking.PadName(name)...)
	return binary.BigEndian.AppendUint32(out, checksum)
}
