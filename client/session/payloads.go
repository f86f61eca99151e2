package session

import (
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"
	"path/filepath"

	log "github.com/schollz/logger"
)

// buildPayload returns the payload for req from the current identity and file state
func (s *Session) buildPayload(req opcode.Request) ([]byte, error) {
	switch req {
	case opcode.REGISTER, opcode.RECONNECT:
		return networking.RegisterPayload(s.identity.Name), nil
	case opcode.SENDPUBLICKEY:
		key, err := s.crypto.ExportPublicKey()
		if err != nil {
			return nil, err
		}
		return networking.PublicKeyPayload(s.identity.Name, key), nil
	case opcode.SENDFILE:
		target, err := s.loadTarget()
		if err != nil {
			return nil, err
		}
		ciphertext, err := s.crypto.Encrypt(target.Raw)
		if err != nil {
			return nil, err
		}
		log.Debugf("encrypted %s: %d -> %d bytes, checksum %08x",
			target.FileName, len(target.Raw), len(ciphertext), s.crypto.Checksum())
		return networking.SendFilePayload(target.FileName, len(target.Raw), ciphertext), nil
	case opcode.CRCOK, opcode.CRCRETRY, opcode.CRCABORT:
		target, err := s.loadTarget()
		if err != nil {
			return nil, err
		}
		return networking.ChecksumPayload(target.FileName), nil
	case opcode.TERMINATE:
		return []byte{}, nil
	}
	return nil, fmt.Errorf("%w: cannot build request %s", opcode.ErrUnknown, req)
}

// loadTarget reads the transfer file once
func (s *Session) loadTarget() (*TransferTarget, error) {
	if s.target != nil {
		return s.target, nil
	}
	if s.sourcePath == "" {
		return nil, fmt.Errorf("no file to transfer")
	}
	raw, err := fileio.ReadWholeFile(s.factory, s.sourcePath, 64*constants.NETWORK_CHUNK_SIZE)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", s.sourcePath, err)
	}
	s.target = &TransferTarget{
		SourcePath: s.sourcePath,
		FileName:   filepath.Base(s.sourcePath),
		Raw:        raw,
	}
	return s.target, nil
}
