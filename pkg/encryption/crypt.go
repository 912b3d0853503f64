package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/gridlab/board-agent/pkg/file"
)

// EncryptionManagerInterface defines encryption and decryption methods.
type EncryptionManagerInterface interface {
	Initialize(keyPath string) error
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// EncryptionManager implements AES-GCM encryption for secrets at rest,
// currently the CoreAPI session token file.
type EncryptionManager struct {
	key        []byte
	fileClient file.FileOperations
	aesgcm     cipher.AEAD
}

// NewEncryptionManager creates a new EncryptionManager instance.
func NewEncryptionManager(fileClient file.FileOperations) *EncryptionManager {
	return &EncryptionManager{fileClient: fileClient}
}

// Initialize loads and caches the AES key and cipher.
func (a *EncryptionManager) Initialize(keyPath string) error {
	key, err := a.fileClient.ReadFileRaw(keyPath)
	if err != nil || len(key) == 0 {
		return fmt.Errorf("failed to read or validate AES key: %w", err)
	}
	const keySize = 32
	if len(key) != keySize {
		return fmt.Errorf("invalid AES key size: got %d bytes, want %d bytes", len(key), keySize)
	}
	a.key = key

	block, err := aes.NewCipher(a.key)
	if err != nil {
		return fmt.Errorf("failed to create AES cipher block: %w", err)
	}

	a.aesgcm, err = cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create AES-GCM: %w", err)
	}

	return nil
}

// Encrypt encrypts plaintext using AES-GCM. The nonce is prepended to the
// ciphertext.
func (a *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	if a.aesgcm == nil {
		return nil, errors.New("encryption manager not initialized")
	}

	var nonce [12]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return a.aesgcm.Seal(nonce[:], nonce[:], plaintext, nil), nil
}

// Decrypt decrypts ciphertext produced by Encrypt.
func (a *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	if a.aesgcm == nil {
		return nil, errors.New("encryption manager not initialized")
	}

	const nonceSize = 12
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short: must include nonce and encrypted data")
	}

	plaintext, err := a.aesgcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
