package session

import (
	"bytes"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/identity"
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"

	log "github.com/schollz/logger"
)

// apply consumes a response and selects the next request. It returns true when the
// conversation is over without another request.
func (s *Session) apply(code opcode.Response, payload []byte) bool {
	switch code {
	case opcode.REGISTEROK:
		s.registered(payload)
	case opcode.REGISTERREJECTED:
		if retry(&s.counters.Register) {
			s.recoverable(fmt.Sprintf("registration rejected, attempt %d/%d", s.counters.Register, constants.MAX_ATTEMPTS))
			s.next = opcode.REGISTER
		} else {
			s.fail(fmt.Sprintf("registration rejected after %d attempts", constants.MAX_ATTEMPTS))
			s.next = opcode.TERMINATE
		}
	case opcode.KEYDELIVERED, opcode.RECONNECTOK:
		s.keyDelivered(payload)
	case opcode.FILERECEIVED:
		s.fileReceived(payload)
	case opcode.ACKNOWLEDGED:
		if s.last == opcode.CRCRETRY {
			log.Infof("server acknowledged retry, resending file (attempt %d/%d)", s.counters.Crc, constants.MAX_ATTEMPTS)
			s.next = opcode.SENDFILE
			return false
		}
		s.serverMessage = string(bytes.TrimRight(payload, "\x00"))
		s.success = s.last == opcode.CRCOK && s.fatal == ""
		return true
	case opcode.RECONNECTREJECTED:
		if retry(&s.counters.Reconnect) {
			s.recoverable(fmt.Sprintf("reconnect rejected, attempt %d/%d", s.counters.Reconnect, constants.MAX_ATTEMPTS))
			s.next = opcode.RECONNECT
		} else {
			s.fail(fmt.Sprintf("reconnect rejected after %d attempts", constants.MAX_ATTEMPTS))
			s.next = opcode.TERMINATE
		}
	case opcode.GENERALERROR:
		s.fail("server responded with general error")
		s.next = opcode.TERMINATE
	}
	return false
}

func (s *Session) registered(payload []byte) {
	id, err := networking.ClientIDFromRegistration(payload)
	if err != nil {
		s.malformed(err)
		return
	}

	encoded, err := networking.EncodePrivateKey(s.crypto.PrivateKey())
	if err == nil {
		s.identity.ID = id
		err = s.store.Save(&identity.Record{ClientIdentity: s.identity, PrivateKey: encoded})
	}
	if err != nil {
		s.fail(fmt.Sprintf("could not persist identity: %v", err))
		s.next = opcode.TERMINATE
		return
	}

	log.Infof("registered with id %s", s.identity.ID)
	s.next = opcode.SENDPUBLICKEY
}

func (s *Session) keyDelivered(payload []byte) {
	blob, err := networking.EncryptedKeyFromDelivery(payload)
	if err == nil {
		err = s.crypto.DecryptSymmetricKey(blob)
	}
	if err != nil {
		s.fail(fmt.Sprintf("could not establish session key: %v", err))
		s.next = opcode.TERMINATE
		return
	}

	log.Info("session key established")
	s.next = opcode.SENDFILE
}

func (s *Session) fileReceived(payload []byte) {
	checksum, err := networking.ChecksumFromFileReceived(payload)
	if err != nil {
		s.malformed(err)
		return
	}

	if s.crypto.VerifyChecksum(checksum) {
		log.Infof("checksum %08x confirmed by server", checksum)
		s.next = opcode.CRCOK
		return
	}

	reason := fmt.Sprintf("%v: local %08x, server %08x", networking.ErrChecksumMismatch, s.crypto.Checksum(), checksum)
	if retry(&s.counters.Crc) {
		s.recoverable(reason)
		s.next = opcode.CRCRETRY
	} else {
		s.fail(fmt.Sprintf("%s after %d attempts", reason, constants.MAX_ATTEMPTS))
		s.next = opcode.CRCABORT
	}
}
