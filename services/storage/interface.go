package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"reservo/models"

	"golang.org/x/crypto/blake2b"
)

// StoredFile is what comes back from an upload: the reference persisted on the evidence and the
// id needed to delete the object again.
type StoredFile struct {
	Ref      string
	PublicID string
	Checksum string
}

// StorageService keeps evidence bytes out of the booking store.
type StorageService interface {
	UploadEvidence(ctx context.Context, bookingID string, file models.EvidenceUpload) (*StoredFile, error)
	DeleteFile(ctx context.Context, publicID string) error
}

// Checksum is the content hash evidence objects are named by, so a re-upload of the same bytes
// lands on the same object.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func publicIDFor(bookingID, checksum string) string {
	return fmt.Sprintf("evidence/%s/%s", bookingID, checksum[:24])
}

// MemoryStorage keeps uploads in process. Used without a Cloudinary account and in tests.
type MemoryStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: map[string][]byte{}}
}

func (m *MemoryStorage) UploadEvidence(_ context.Context, bookingID string, file models.EvidenceUpload) (*StoredFile, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("empty file %q", file.Filename)
	}
	sum := Checksum(file.Data)
	id := publicIDFor(bookingID, sum)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = append([]byte(nil), file.Data...)
	return &StoredFile{Ref: "memory://" + id, PublicID: id, Checksum: sum}, nil
}

func (m *MemoryStorage) DeleteFile(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, publicID)
	return nil
}

// Len reports how many objects are stored.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
