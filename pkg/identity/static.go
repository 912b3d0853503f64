package identity

// StaticBoardInfo is an in-memory BoardInfoInterface for simulated boards,
// which are configured up front and never persist an assigned identity.
type StaticBoardInfo struct {
	identity Identity
}

// NewStaticBoardInfo wraps a fixed identity.
func NewStaticBoardInfo(ident Identity) *StaticBoardInfo {
	return &StaticBoardInfo{identity: ident}
}

// LoadBoardInfo is a no-op; the identity is already in memory.
func (s *StaticBoardInfo) LoadBoardInfo() error {
	return nil
}

// SaveBoardID updates the in-memory identity only.
func (s *StaticBoardInfo) SaveBoardID(boardID uint32) error {
	s.identity.BoardID = boardID
	return nil
}

// GetBoardID returns the configured board ID.
func (s *StaticBoardInfo) GetBoardID() uint32 {
	return s.identity.BoardID
}

// GetBoardIdentity returns the configured identity.
func (s *StaticBoardInfo) GetBoardIdentity() *Identity {
	return &s.identity
}
