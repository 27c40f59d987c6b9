package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type StorageService interface {
	SaveExport(filename string, data []byte) (string, error)
	Exists(filename string) bool
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureExportDir() error
}

type storageService struct {
	exportPath string
}

func NewStorageService(exportPath string) StorageService {
	return &storageService{
		exportPath: exportPath,
	}
}

func (s *storageService) EnsureExportDir() error {
	if err := os.MkdirAll(s.exportPath, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	return nil
}

// SaveExport writes data through a temporary file so a reader never sees a
// half-written export.
func (s *storageService) SaveExport(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".csv" {
		return "", fmt.Errorf("invalid export extension: %s", ext)
	}
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid export file name: %s", filename)
	}

	if err := s.EnsureExportDir(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.exportPath, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close export: %w", err)
	}

	filePath := s.GetFilePath(filename)
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	return filePath, nil
}

func (s *storageService) Exists(filename string) bool {
	_, err := os.Stat(s.GetFilePath(filename))
	return err == nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.exportPath, filename)
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
