// Package kvstore provides the device-local key/value storage the local repositories are built on
package kvstore

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const fileSuffix = ".json"

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ErrIllegalKey is returned for keys that cannot be mapped onto a file name
var ErrIllegalKey = errors.New("illegal key")

// Store is a simple string key/value store. A missing key is reported by ok == false, not by an error
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	// Keys returns all stored keys in lexical order
	Keys() ([]string, error)
}

// -- File backed store ------------------------------------------------------------------------------------------------

// FileStore keeps every key in its own file inside a directory
type FileStore struct {
	dir string
	mtx sync.RWMutex
}

// NewFile creates a file store working in the given directory. The directory has to exist
func NewFile(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) fileName(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", errors.Wrapf(ErrIllegalKey, "key '%s'", key)
	}
	return filepath.Join(s.dir, key+fileSuffix), nil
}

// Get returns the value stored for the key
func (s *FileStore) Get(key string) (string, bool, error) {
	name, err := s.fileName(key)
	if err != nil {
		return "", false, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	data, err := ioutil.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "Get: Failed to read '%s'", key)
	}
	return string(data), true, nil
}

// Set stores the value for the key. The file is replaced atomically
func (s *FileStore) Set(key, value string) error {
	name, err := s.fileName(key)
	if err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	tmp, err := ioutil.TempFile(s.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "Set: Cannot create temporary file for '%s'", key)
	}
	if _, err = tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "Set: Failed to write '%s'", key)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "Set: Failed to write '%s'", key)
	}
	if err = os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "Set: Failed to replace '%s'", key)
	}
	return nil
}

// Delete removes the key. Removing a missing key is no error
func (s *FileStore) Delete(key string) error {
	name, err := s.fileName(key)
	if err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "Delete: Failed to remove '%s'", key)
	}
	return nil
}

// Keys returns all stored keys in lexical order
func (s *FileStore) Keys() ([]string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	infos, err := ioutil.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "Keys: Failed to list store directory")
	}
	keys := []string{}
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}

// -- In-memory store --------------------------------------------------------------------------------------------------

// MemoryStore keeps everything in a map. Used in tests and when the data directory cannot be used
type MemoryStore struct {
	mtx  sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

// Get returns the value stored for the key
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores the value for the key
func (s *MemoryStore) Set(key, value string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes the key
func (s *MemoryStore) Delete(key string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.data, key)
	return nil
}

// Keys returns all stored keys in lexical order
func (s *MemoryStore) Keys() ([]string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
