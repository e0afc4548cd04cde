package sessionstore

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/trace/core/auth"
)

// fileStore keeps the auth.State in a YAML file readable by the current user only.
type fileStore struct {
	path string
	mu   sync.Mutex
}

var _ auth.Store = (*fileStore)(nil)

func NewFileStore(path string) auth.Store {
	return &fileStore{path: path}
}

func (s *fileStore) Load() (auth.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st auth.State
	data, err := ioutil.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, errors.Wrap(err, "reading session file")
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return auth.State{}, errors.Wrap(err, "decoding session file")
	}
	return st, nil
}

// Save writes to a temp file then renames it, so readers never see half a session.
func (s *fileStore) Save(st auth.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating session dir")
	}
	tmp, err := ioutil.TempFile(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return errors.Wrap(err, "creating temp session file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing session file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod session file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing session file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replacing session file")
}

func (s *fileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
