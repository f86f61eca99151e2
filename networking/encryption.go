package networking

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"strings"

	log "github.com/schollz/logger"
)

// KeyStore persists the Base64 encoded private key between runs
type KeyStore interface {
	LoadPrivateKey() (encoded string, found bool, err error)
	SavePrivateKey(encoded string) error
}

// Crypto handles the RSA identity, AES session key and file checksum
type Crypto struct {
	private     *rsa.PrivateKey
	aes         cipher.Block
	iv          []byte
	checksum    uint32
	hasChecksum bool
}

// WithPrivateKey takes the client RSA key pair
func (c *Crypto) WithPrivateKey(key *rsa.PrivateKey) *Crypto {
	c.private = key
	return c
}

// GenerateOrLoadKeyPair loads the persisted private key or generates and persists a new one
func (c *Crypto) GenerateOrLoadKeyPair(store KeyStore) error {
	encoded, found, err := store.LoadPrivateKey()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyStore, err)
	}
	if found {
		key, err := DecodePrivateKey(encoded)
		if err != nil {
			return err
		}
		c.private = key
		log.Debug("loaded persisted private key")
		return nil
	}

	key, err := rsa.GenerateKey(rand.Reader, constants.RSA_KEY_BITS)
	if err != nil {
		return fmt.Errorf("%w: generate key: %v", ErrKeyStore, err)
	}
	encoded, err = EncodePrivateKey(key)
	if err != nil {
		return err
	}
	if err := store.SavePrivateKey(encoded); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyStore, err)
	}
	c.private = key
	log.Infof("generated new %d bit RSA key pair", constants.RSA_KEY_BITS)
	return nil
}

// PrivateKey returns the key pair or nil if none was loaded
func (c *Crypto) PrivateKey() *rsa.PrivateKey {
	return c.private
}

// ExportPublicKey returns the public key as Base64 of its DER (X.509) encoding
func (c *Crypto) ExportPublicKey() ([]byte, error) {
	if c.private == nil {
		return nil, fmt.Errorf("%w: no key pair loaded", ErrKeyStore)
	}
	der, err := x509.MarshalPKIXPublicKey(&c.private.PublicKey)
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(der)))
	base64.StdEncoding.Encode(out, der)
	return out, nil
}

// DecryptSymmetricKey decrypts the server's AES key blob. The plaintext must be
// exactly the 32 byte key followed by the 16 byte IV.
func (c *Crypto) DecryptSymmetricKey(blob []byte) error {
	if c.private == nil {
		return fmt.Errorf("%w: no key pair loaded", ErrKeyExchange)
	}
	plain, err := rsa.DecryptOAEP(sha1.New(), nil, c.private, blob, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyExchange, err)
	}
	if len(plain) != constants.AES_KEY_SIZE+constants.AES_IV_SIZE {
		return fmt.Errorf("%w: decrypted key material is %d bytes, want %d",
			ErrKeyExchange, len(plain), constants.AES_KEY_SIZE+constants.AES_IV_SIZE)
	}
	block, err := aes.NewCipher(plain[:constants.AES_KEY_SIZE])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyExchange, err)
	}
	c.aes = block
	c.iv = append([]byte(nil), plain[constants.AES_KEY_SIZE:]...)
	return nil
}

// HasSymmetricKey reports whether an AES key and IV were delivered
func (c *Crypto) HasSymmetricKey() bool {
	return c.aes != nil
}

// Encrypt records the checksum of data and returns it encrypted with AES-CBC (PKCS#7 padded)
func (c *Crypto) Encrypt(data []byte) ([]byte, error) {
	if c.aes == nil {
		return nil, ErrKeyNotEstablished
	}

	c.checksum = fileio.ChecksumCRC32(data)
	c.hasChecksum = true

	plain := pkcs7Pad(data, aes.BlockSize)
	dst := make([]byte, len(plain))
	cipher.NewCBCEncrypter(c.aes, c.iv).CryptBlocks(dst, plain)

	return dst, nil
}

// Decrypt reverses Encrypt
func (c *Crypto) Decrypt(data []byte) ([]byte, error) {
	if c.aes == nil {
		return nil, ErrKeyNotEstablished
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(data))
	}
	dst := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.aes, c.iv).CryptBlocks(dst, data)
	return pkcs7Unpad(dst, aes.BlockSize)
}

// Checksum returns the checksum recorded by the last Encrypt
func (c *Crypto) Checksum() uint32 {
	return c.checksum
}

// VerifyChecksum returns true if candidate matches the checksum recorded by the last Encrypt
func (c *Crypto) VerifyChecksum(candidate uint32) bool {
	return c.hasChecksum && candidate == c.checksum
}

// EncodePrivateKey serializes key as Base64 of its DER (PKCS#8) encoding
func EncodePrivateKey(key *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyStore, err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// DecodePrivateKey parses a Base64 DER private key. Line breaks inside the text are ignored.
func DecodePrivateKey(encoded string) (*rsa.PrivateKey, error) {
	compact := strings.Join(strings.Fields(encoded), "")
	der, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not valid base64: %v", ErrKeyStore, err)
	}

	if parsed, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		if key, ok := parsed.(*rsa.PrivateKey); ok {
			return key, nil
		}
		return nil, fmt.Errorf("%w: private key is not RSA", ErrKeyStore)
	}
	// Older key files were written as PKCS#1.
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStore, err)
	}
	return key, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+padLen), data...),
		bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("invalid padding length %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid padding byte %d", b)
		}
	}
	return data[:len(data)-padLen], nil
}
