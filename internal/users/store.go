// Package users manages the lecturer/board account file consumed by the
// CoreAPI service. Accounts live in a TOML file with three tables: lecturers,
// boards and groups; the server reloads it on restart.
package users

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// User is one lecturer or board account.
type User struct {
	Password string `toml:"password"`
	Name     string `toml:"name"`
	Group    string `toml:"group"`
}

// Group bounds how many boards may join a game group.
type Group struct {
	Name      string `toml:"name"`
	MaxBoards int    `toml:"max_boards"`
}

// File is the on-disk account configuration.
type File struct {
	Lecturers map[string]User  `toml:"lecturers"`
	Boards    map[string]User  `toml:"boards"`
	Groups    map[string]Group `toml:"groups"`
}

// Kind selects which account table an operation targets.
type Kind string

const (
	KindLecturer Kind = "lecturer"
	KindBoard    Kind = "board"
)

// ErrUserExists is returned when adding a username that is already taken.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when the named user is in neither table.
var ErrUserNotFound = errors.New("user not found")

// Store reads and writes the account file.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore creates a store for the account file at path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the account file. A missing file yields an empty configuration
// so first-run tooling can build one up.
func (s *Store) Load() (File, error) {
	cfg := File{
		Lecturers: map[string]User{},
		Boards:    map[string]User{},
		Groups:    map[string]Group{},
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(s.path, &cfg); err != nil {
		return File{}, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if cfg.Lecturers == nil {
		cfg.Lecturers = map[string]User{}
	}
	if cfg.Boards == nil {
		cfg.Boards = map[string]User{}
	}
	if cfg.Groups == nil {
		cfg.Groups = map[string]Group{}
	}
	return cfg, nil
}

// Save writes the account file, creating parent directories as needed.
func (s *Store) Save(cfg File) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

// Add inserts a new account into the selected table.
func (s *Store) Add(kind Kind, username, password, name, group string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}

	if name == "" {
		name = username
	}
	if group == "" {
		group = "group1"
	}

	table := cfg.Boards
	if kind == KindLecturer {
		table = cfg.Lecturers
	}
	if _, taken := table[username]; taken {
		return fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	table[username] = User{Password: password, Name: name, Group: group}

	if err := s.Save(cfg); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Str("kind", string(kind)).Msg("Added user")
	return nil
}

// Remove deletes the named account from whichever table holds it.
func (s *Store) Remove(username string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}

	if _, ok := cfg.Lecturers[username]; ok {
		delete(cfg.Lecturers, username)
	} else if _, ok := cfg.Boards[username]; ok {
		delete(cfg.Boards, username)
	} else {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	if err := s.Save(cfg); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("Removed user")
	return nil
}

// SetPassword changes the password of the named account.
func (s *Store) SetPassword(username, password string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}

	if user, ok := cfg.Lecturers[username]; ok {
		user.Password = password
		cfg.Lecturers[username] = user
	} else if user, ok := cfg.Boards[username]; ok {
		user.Password = password
		cfg.Boards[username] = user
	} else {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	if err := s.Save(cfg); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("Changed password")
	return nil
}

// CreateSample writes a starter configuration with demo accounts. An existing
// file is preserved unless force is set.
func (s *Store) CreateSample(force bool) error {
	if !force {
		if _, err := os.Stat(s.path); err == nil {
			return fmt.Errorf("configuration file already exists: %s", s.path)
		}
	}

	sample := File{
		Lecturers: map[string]User{
			"lecturer1": {Password: "lecturer123", Name: "Dr. John Smith", Group: "group1"},
			"admin":     {Password: "admin2024", Name: "System Administrator", Group: "group1"},
		},
		Boards: map[string]User{
			"board1": {Password: "board123", Name: "Solar Panel Team", Group: "group1"},
			"board2": {Password: "board456", Name: "Wind Power Team", Group: "group1"},
			"demo":   {Password: "demo123", Name: "Demo Board", Group: "demo"},
		},
		Groups: map[string]Group{
			"group1": {Name: "Primary Game Group", MaxBoards: 10},
			"demo":   {Name: "Demo Group", MaxBoards: 5},
		},
	}
	return s.Save(sample)
}
