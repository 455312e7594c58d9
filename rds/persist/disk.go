package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var lock sync.Mutex

// Marshal is a function that marshals the object into an
// io.Reader.
func Marshal(v interface{}) (io.Reader, error) {
	b, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Save saves the representation of v to file inside directory.
func Save(directory string, file string, v interface{}) error {
	lock.Lock()
	defer lock.Unlock()
	f, err := os.Create(filepath.Join(directory, file))
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to create run log file: %s", err.Error()))
	}
	defer f.Close()
	r, err := Marshal(v)
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to marshal run log object into io.Reader: %s", err.Error()))
	}
	_, err = io.Copy(f, r)
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to copy run log object into file: %s", err.Error()))
	}
	return nil
}

// SaveText writes a plain text record to file inside directory.
func SaveText(directory string, file string, content string) error {
	lock.Lock()
	defer lock.Unlock()
	f, err := os.Create(filepath.Join(directory, file))
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to create run log file: %s", err.Error()))
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to write run log file: %s", err.Error()))
	}
	return nil
}

// Load loads the file at path into v.
func Load(path string, v interface{}) error {
	lock.Lock()
	defer lock.Unlock()
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to open run log file: %s", err.Error()))
	}
	defer f.Close()
	if err = json.NewDecoder(f).Decode(&v); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to decode run log file to interface: %s", err.Error()))
	}
	return nil
}

// EnsurePath creates the run log directory for an instance. Reruns against
// the same instance reuse the directory.
func EnsurePath(directory string) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to create run log directory: %s", err.Error()))
	}
	return nil
}

// DeletePath deletes a run log directory.
func DeletePath(directory string) error {
	if err := os.RemoveAll(directory); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to delete run log directory: %s", err.Error()))
	}
	return nil
}
