// Package session drives the request/response conversation with the file server:
// registration or reconnection, key exchange, the encrypted upload and the
// checksum confirmation.
package session

import (
	"context"
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"go_secure_copy/identity"
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"
	"sync"
	"time"

	log "github.com/schollz/logger"
)

// Config holds what a session needs besides the connection
type Config struct {
	// ClientName is used when registering. A stored identity overrides it.
	ClientName string
	FilePath   string
	Store      identity.Store
	Transport  *networking.Transport
	Factory    fileio.IOFactory
}

// Outcome summarizes a finished run
type Outcome struct {
	Success bool
	// FatalReason is set when the run ended on a terminal failure.
	FatalReason string
	// LastFailure is the most recent recoverable failure, if any.
	LastFailure   string
	ServerMessage string
	Counters      Counters
}

// TransferTarget is the file being sent, loaded on the first SendFile
type TransferTarget struct {
	SourcePath string
	FileName   string
	Raw        []byte
}

// Session is the client side protocol state machine. It is not safe for concurrent use.
type Session struct {
	stream    networking.Stream
	transport *networking.Transport
	crypto    *networking.Crypto
	store     identity.Store
	factory   fileio.IOFactory

	identity   identity.ClientIdentity
	sourcePath string
	target     *TransferTarget

	next     opcode.Request
	last     opcode.Request
	counters Counters

	fatal         string
	lastFailure   string
	serverMessage string
	success       bool
}

// New prepares a session on stream. A stored identity selects Reconnect as the first
// request, otherwise the client registers with cfg.ClientName. When the identity or key
// cannot be loaded, a Terminate request is sent on stream before the error is returned.
func New(stream networking.Stream, cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.New("session: identity store is required")
	}
	if cfg.Transport == nil {
		cfg.Transport = networking.NewTransport(constants.DEFAULT_TIMEOUT * time.Second)
	}
	if cfg.Factory == nil {
		cfg.Factory = new(fileio.BufferedFactory)
	}

	s := &Session{
		stream:     stream,
		transport:  cfg.Transport,
		crypto:     new(networking.Crypto),
		store:      cfg.Store,
		factory:    cfg.Factory,
		identity:   identity.ClientIdentity{Name: cfg.ClientName},
		sourcePath: cfg.FilePath,
		counters:   newCounters(),
	}

	if err := s.prepare(cfg); err != nil {
		s.abort()
		return nil, err
	}

	return s, nil
}

// prepare picks the first request and loads or creates the key pair
func (s *Session) prepare(cfg Config) error {
	if cfg.Store.Exists() {
		record, err := cfg.Store.Load()
		if err != nil {
			return fmt.Errorf("%w: load identity: %v", networking.ErrKeyStore, err)
		}
		s.identity = record.ClientIdentity
		s.next = opcode.RECONNECT
		log.Infof("found identity %s (%s), reconnecting", s.identity.Name, s.identity.ID)
	} else {
		if s.identity.Name == "" {
			return errors.New("session: client name is required to register")
		}
		s.next = opcode.REGISTER
		log.Infof("no stored identity, registering as %s", s.identity.Name)
	}
	if len(s.identity.Name) > constants.MAX_NAME_LENGTH {
		log.Warnf("client name is longer than %d bytes and will be truncated", constants.MAX_NAME_LENGTH)
	}

	return s.crypto.GenerateOrLoadKeyPair(cfg.Store)
}

// abort tells the peer the session is over without waiting for a reply
func (s *Session) abort() {
	s.next = opcode.TERMINATE
	if _, err := s.Step(); err != nil {
		log.Debugf("could not send termination request: %v", err)
	}
}

// Next returns the request the session will send next
func (s *Session) Next() opcode.Request {
	return s.next
}

// Identity returns the current client identity
func (s *Session) Identity() identity.ClientIdentity {
	return s.identity
}

// Crypto exposes the key material of the session
func (s *Session) Crypto() *networking.Crypto {
	return s.crypto
}

// Counters returns a copy of the retry counters
func (s *Session) Counters() Counters {
	return s.counters
}

// Run sends requests and applies responses until the conversation ends. Transport
// errors end the run immediately; protocol failures end it with a Terminate request.
func (s *Session) Run(ctx context.Context) (*Outcome, error) {
	guarded := &cancelStream{Stream: s.stream}
	s.stream = guarded
	defer func() { s.stream = guarded.Stream }()

	stop := context.AfterFunc(ctx, guarded.expire)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			s.fail("run cancelled: " + err.Error())
			return s.outcome(), err
		}

		done, err := s.Step()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = fmt.Errorf("%w (%v)", ctxErr, err)
			}
			return s.outcome(), err
		}
		if done {
			return s.outcome(), nil
		}
	}
}

// Step performs one round: send the pending request and, unless it was Terminate,
// receive and apply the response. It returns true once the conversation is over.
func (s *Session) Step() (bool, error) {
	req := s.next

	payload, err := s.buildPayload(req)
	if err != nil {
		s.fail(err.Error())
		s.next = opcode.TERMINATE
		return false, nil
	}

	out, err := networking.RequestToBytes(&networking.Request{
		ClientID: s.identity.Bytes(),
		Header: networking.Header{
			Version: constants.CLIENT_VERSION,
			Opcode:  uint16(req),
		},
		Payload: payload,
	})
	if err != nil {
		s.fail(err.Error())
		s.next = opcode.TERMINATE
		return false, nil
	}

	log.Debugf("sending %s with %d byte payload", req, len(payload))
	if err := s.transport.Send(s.stream, out); err != nil {
		return true, err
	}
	s.last = req

	if req == opcode.TERMINATE {
		log.Info("sent termination request")
		return true, nil
	}

	raw, err := s.transport.Receive(s.stream)
	if err != nil {
		return true, err
	}

	resp, err := networking.DecodeResponse(raw)
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		s.malformed(err)
		return false, nil
	}

	code, err := opcode.ParseResponse(resp.Opcode)
	if err != nil {
		s.fail(err.Error())
		s.next = opcode.TERMINATE
		return false, nil
	}
	log.Debugf("received %s with %d byte payload (version %d)", code, len(resp.Payload), resp.Version)

	return s.apply(code, resp.Payload), nil
}

// cancelStream pins both deadlines in the past once expired
type cancelStream struct {
	networking.Stream

	mu      sync.Mutex
	expired bool
}

func (c *cancelStream) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expired = true
	now := time.Now()
	c.Stream.SetReadDeadline(now)
	c.Stream.SetWriteDeadline(now)
}

func (c *cancelStream) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return nil
	}
	return c.Stream.SetReadDeadline(t)
}

func (c *cancelStream) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return nil
	}
	return c.Stream.SetWriteDeadline(t)
}

func (s *Session) outcome() *Outcome {
	return &Outcome{
		Success:       s.success,
		FatalReason:   s.fatal,
		LastFailure:   s.lastFailure,
		ServerMessage: s.serverMessage,
		Counters:      s.counters,
	}
}

// fail records a terminal reason. The first reason wins.
func (s *Session) fail(reason string) {
	log.Errorf("fatal: %s", reason)
	if s.fatal == "" {
		s.fatal = reason
	}
}

// recoverable records a failure that will be retried
func (s *Session) recoverable(reason string) {
	log.Warnf("%s", reason)
	s.lastFailure = reason
}

// malformed treats the round as a no-op and repeats the last request, up to the ceiling.
func (s *Session) malformed(err error) {
	if retry(&s.counters.Malformed) {
		s.recoverable("ignoring malformed response: " + err.Error())
		s.next = s.last
		return
	}
	s.fail(fmt.Sprintf("malformed responses after %d attempts: %v", constants.MAX_ATTEMPTS, err))
	s.next = opcode.TERMINATE
}
