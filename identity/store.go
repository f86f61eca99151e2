package identity

import (
	"errors"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"io/fs"
	"os"
	"strings"
)

// Store loads and saves the client identity and its private key
type Store interface {
	Exists() bool
	Load() (*Record, error)
	Save(record *Record) error
	LoadPrivateKey() (encoded string, found bool, err error)
	SavePrivateKey(encoded string) error
}

// FileStore keeps the identity in me.info and the private key in priv.key
type FileStore struct {
	MePath  string
	KeyPath string
	Factory fileio.IOFactory
}

// NewFileStore returns a store using the buffered file factory
func NewFileStore(mePath, keyPath string) *FileStore {
	if mePath == "" {
		mePath = constants.ME_INFO_FILE
	}
	if keyPath == "" {
		keyPath = constants.PRIVATE_KEY_FILE
	}
	return &FileStore{
		MePath:  mePath,
		KeyPath: keyPath,
		Factory: new(fileio.BufferedFactory),
	}
}

// Exists reports whether a me.info file is present
func (s *FileStore) Exists() bool {
	info, err := os.Stat(s.MePath)
	return err == nil && !info.IsDir()
}

// Load reads and parses me.info
func (s *FileStore) Load() (*Record, error) {
	text, err := s.readText(s.MePath)
	if err != nil {
		return nil, err
	}
	return ParseRecord(text)
}

// Save replaces me.info with record
func (s *FileStore) Save(record *Record) error {
	return fileio.WriteTextFile(s.Factory, s.MePath, record.Lines()...)
}

// LoadPrivateKey returns the key from priv.key, falling back to the one in me.info
func (s *FileStore) LoadPrivateKey() (string, bool, error) {
	text, err := s.readText(s.KeyPath)
	if err == nil {
		key := strings.Join(strings.Fields(text), "")
		if key != "" {
			return key, true, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, err
	}

	if !s.Exists() {
		return "", false, nil
	}
	record, err := s.Load()
	if err != nil {
		return "", false, err
	}
	return record.PrivateKey, true, nil
}

// SavePrivateKey replaces priv.key with encoded
func (s *FileStore) SavePrivateKey(encoded string) error {
	return fileio.WriteTextFile(s.Factory, s.KeyPath, encoded)
}

func (s *FileStore) readText(path string) (string, error) {
	content, err := fileio.ReadWholeFile(s.Factory, path, 4096)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
