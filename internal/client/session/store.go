// Package session keeps the client's session token on disk between runs.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/filex"
)

const (
	dirName   = ".gophauth"
	tokenFile = "token"
)

type Store struct {
	path string
}

// NewStore keeps the token under base/.gophauth, creating the directory.
func NewStore(base string) (*Store, error) {
	dir, err := filex.EnsureSubDir(base, dirName)
	if err != nil {
		return nil, err
	}
	return &Store{path: filepath.Join(dir, tokenFile)}, nil
}

// DefaultStore keeps the token in the user's home directory.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home dir: %w", err)
	}
	return NewStore(home)
}

func (s *Store) Path() string {
	return s.path
}

// Load returns common.ErrorNotFound when no session is stored.
func (s *Store) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.ErrorNotFound
		}
		return "", err
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", common.ErrorNotFound
	}
	return tok, nil
}

func (s *Store) Save(token string) error {
	return filex.WritePrivate(s.path, []byte(token))
}

// Clear forgets the session. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
