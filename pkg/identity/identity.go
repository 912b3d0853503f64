package identity

import (
	"os"

	"github.com/gridlab/board-agent/pkg/file"
)

// Identity holds the board's identifier and descriptive metadata.
type Identity struct {
	BoardID   uint32 `json:"board_id,omitempty"`
	Name      string `json:"board_name,omitempty"`
	BoardType string `json:"board_type,omitempty"`
	Username  string `json:"username,omitempty"`
}

// BoardInfoInterface defines methods for managing the board identity.
type BoardInfoInterface interface {
	LoadBoardInfo() error
	SaveBoardID(boardID uint32) error
	GetBoardID() uint32
	GetBoardIdentity() *Identity
}

// BoardInfo manages the board identity and its associated file operations.
type BoardInfo struct {
	BoardInfoFile string
	Identity      Identity
	fileOps       file.FileOperations
}

// NewBoardInfo initializes a new BoardInfo instance.
func NewBoardInfo(filePath string, fileOps file.FileOperations) BoardInfoInterface {
	return &BoardInfo{
		BoardInfoFile: filePath,
		fileOps:       fileOps,
		Identity:      Identity{},
	}
}

// LoadBoardInfo reads the board information from the file and populates the Identity field.
func (b *BoardInfo) LoadBoardInfo() error {
	err := b.fileOps.ReadJsonFile(b.BoardInfoFile, &b.Identity)
	if err != nil {
		if os.IsNotExist(err) {
			// File does not exist, start with an unregistered identity
			b.Identity = Identity{}
			return nil
		}
		return err
	}

	return nil
}

// GetBoardIdentity returns the current board Identity.
func (b *BoardInfo) GetBoardIdentity() *Identity {
	return &b.Identity
}

// GetBoardID returns the current board ID, zero when unregistered.
func (b *BoardInfo) GetBoardID() uint32 {
	return b.Identity.BoardID
}

// SaveBoardID updates the board ID in the Identity field and writes it back to the file.
func (b *BoardInfo) SaveBoardID(boardID uint32) error {
	b.Identity.BoardID = boardID
	return b.fileOps.WriteJsonFile(b.BoardInfoFile, b.Identity)
}
