package testutils

import (
	"errors"
	"sync"
	"testing"

	"emote-hub-server/internal/storage"
)

// MemStorage 是内存版的 blob 存储，供测试注入。
// FailSave 打开后 Save 总是失败，用于验证失败清理路径。
type MemStorage struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	FailSave bool
}

func NewMemStorage() *MemStorage {
	return &MemStorage{blobs: make(map[string][]byte)}
}

func (m *MemStorage) Save(uuid string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave {
		return errors.New("injected save failure")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[uuid] = cp
	return nil
}

func (m *MemStorage) Load(uuid string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[uuid]
	if !ok {
		return nil, errors.New("blob not found: " + uuid)
	}
	return data, nil
}

func (m *MemStorage) Delete(uuid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, uuid)
	return nil
}

// Has 判断 blob 是否存在。
func (m *MemStorage) Has(uuid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[uuid]
	return ok
}

// Len 返回 blob 数量。
func (m *MemStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// SetupStorage 注入内存存储并在测试结束后还原。
func SetupStorage(t *testing.T) *MemStorage {
	t.Helper()
	prev := storage.Get()
	mem := NewMemStorage()
	storage.SetForTest(mem)
	t.Cleanup(func() { storage.SetForTest(prev) })
	return mem
}
