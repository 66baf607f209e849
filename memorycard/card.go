// Package memorycard is the persistence collaborator for authentication
// material: named slots holding opaque byte blobs, with no guarantee
// beyond last-write-observed. The bridge loads a slot on start and
// writes it back after a successful authentication.
package memorycard

// Card stores opaque blobs in named slots. Implementations are
// best-effort: a failed Load or Set must not crash the session, which
// falls back to the fresh QR-scan flow instead.
type Card interface {
	// Load reads the backing store. Must be called before Get.
	Load() error
	// Get returns the blob in slot, or false if the slot is empty.
	Get(slot string) ([]byte, bool)
	// Set writes the blob to slot and persists it.
	Set(slot string, blob []byte) error
}
