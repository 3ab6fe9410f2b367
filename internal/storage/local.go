package storage

import (
	"os"
	"path/filepath"
)

// LocalProvider 将 blob 以 uuid 为文件名平铺存放在数据目录下。
type LocalProvider struct {
	baseDir string
}

func NewLocalProvider(baseDir string) (*LocalProvider, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &LocalProvider{baseDir: baseDir}, nil
}

func (p *LocalProvider) Save(uuid string, data []byte) error {
	return os.WriteFile(filepath.Join(p.baseDir, uuid), data, 0644)
}

func (p *LocalProvider) Load(uuid string) ([]byte, error) {
	return os.ReadFile(filepath.Join(p.baseDir, uuid))
}

func (p *LocalProvider) Delete(uuid string) error {
	err := os.Remove(filepath.Join(p.baseDir, uuid))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
