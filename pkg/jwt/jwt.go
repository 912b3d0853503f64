package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/gridlab/board-agent/pkg/encryption"
	"github.com/gridlab/board-agent/pkg/file"
)

// JWTManagerInterface defines methods to manage the CoreAPI session token.
type JWTManagerInterface interface {
	LoadJWT() error
	SaveJWT(token string) error
	GetJWT() string
	IsJWTValid() (bool, error)
}

// JWTManager stores the bearer token issued by the CoreAPI login endpoint,
// encrypted at rest. The signing secret lives on the server, so tokens are
// parsed without signature verification; only the expiry claim is checked
// before a token is handed out for reuse.
type JWTManager struct {
	TokenFilePath     string
	Token             string
	FileOps           file.FileOperations
	EncryptionManager encryption.EncryptionManagerInterface
}

// NewJWTManager initializes a new JWTManager instance.
func NewJWTManager(tokenFilePath string, fileOps file.FileOperations, encryptionManager encryption.EncryptionManagerInterface) JWTManagerInterface {
	return &JWTManager{
		TokenFilePath:     tokenFilePath,
		FileOps:           fileOps,
		EncryptionManager: encryptionManager,
	}
}

// LoadJWT reads the stored token from disk. A missing or empty file is not
// an error; the board simply logs in again.
func (jm *JWTManager) LoadJWT() error {
	data, err := jm.FileOps.ReadFileRaw(jm.TokenFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			jm.Token = ""
			return nil
		}
		return err
	}

	if len(data) == 0 {
		jm.Token = ""
		return nil
	}

	decrypted, err := jm.EncryptionManager.Decrypt(data)
	if err != nil {
		return err
	}

	jm.Token = string(decrypted)
	return nil
}

// SaveJWT persists the given token, encrypted, and caches it in memory.
func (jm *JWTManager) SaveJWT(token string) error {
	if token == "" {
		return errors.New("refusing to save an empty token")
	}

	encrypted, err := jm.EncryptionManager.Encrypt([]byte(token))
	if err != nil {
		return err
	}

	if err := jm.FileOps.WriteFileRaw(jm.TokenFilePath, encrypted); err != nil {
		return err
	}

	jm.Token = token
	return nil
}

// GetJWT retrieves the current token only if it is still valid.
func (jm *JWTManager) GetJWT() string {
	if jm.Token == "" {
		return ""
	}

	isValid, err := jm.IsJWTValid()
	if err != nil || !isValid {
		return ""
	}

	return jm.Token
}

// IsJWTValid checks whether the current token parses and has not expired.
func (jm *JWTManager) IsJWTValid() (bool, error) {
	if jm.Token == "" {
		return false, nil
	}

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(jm.Token, claims)
	if err != nil {
		return false, nil // Unparseable tokens are invalid, not an error
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return false, errors.New("JWT expiration (exp) claim missing or invalid")
	}

	if time.Now().After(time.Unix(int64(exp), 0)) {
		return false, nil
	}

	return true, nil
}
