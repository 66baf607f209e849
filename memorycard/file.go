package memorycard

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileCard is a Card backed by a single JSON file. Blobs are stored
// base64-encoded so the file stays inspectable.
type FileCard struct {
	mu    sync.Mutex
	path  string
	slots map[string]string
}

// NewFileCard creates a card persisted at path. The file is created
// lazily on the first Set.
func NewFileCard(path string) *FileCard {
	return &FileCard{
		path:  path,
		slots: make(map[string]string),
	}
}

// Load reads the backing file. A missing file is not an error: the card
// simply starts empty.
func (c *FileCard) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read memory card: %w", err)
	}
	slots := make(map[string]string)
	if err := json.Unmarshal(data, &slots); err != nil {
		return fmt.Errorf("decode memory card: %w", err)
	}
	c.slots = slots
	return nil
}

// Get returns the blob stored in slot.
func (c *FileCard) Get(slot string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	encoded, ok := c.slots[slot]
	if !ok {
		return nil, false
	}
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	return blob, true
}

// Set stores the blob and writes the file with 0600 permissions.
func (c *FileCard) Set(slot string, blob []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slots[slot] = base64.StdEncoding.EncodeToString(blob)

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("create memory card dir: %w", err)
	}
	data, err := json.MarshalIndent(c.slots, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory card: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("write memory card: %w", err)
	}
	return nil
}
