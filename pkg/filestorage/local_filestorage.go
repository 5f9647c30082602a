// pkg/filestorage/local_filestorage.go

package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStorageInterface - хранилище двоичных файлов. Возвращаемый путь относительный
// и служит непрозрачной ссылкой на файл.
type FileStorageInterface interface {
	Save(ctx context.Context, file io.Reader, fileName string, prefix string) (filePath string, err error)
	Delete(ctx context.Context, filePath string) error
}

type LocalFileStorage struct {
	basePath string
	now      func() time.Time
}

func NewLocalFileStorage(basePath string) (*LocalFileStorage, error) {
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию: %w", err)
		}
	}
	return &LocalFileStorage{basePath: basePath, now: time.Now}, nil
}

func (s *LocalFileStorage) BasePath() string {
	return s.basePath
}

func (s *LocalFileStorage) Save(_ context.Context, file io.Reader, fileName string, prefix string) (string, error) {
	relPath := objectKey(prefix, s.now(), fileName)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		return "", err
	}

	return relPath, nil
}

func (s *LocalFileStorage) Delete(_ context.Context, filePath string) error {
	// filePath может прийти как "/uploads/qrcodes/..." - отсекаем префикс раздачи статики
	relativePath := strings.TrimPrefix(filePath, "/uploads/")
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relativePath))

	// Если файла и так нет, считаем операцию успешной.
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(fullPath)
}

// objectKey - prefix/yyyy/mm/dd/fileName, одинаково для локального диска и S3
func objectKey(prefix string, now time.Time, fileName string) string {
	datePath := now.Format("2006/01/02")
	return filepath.ToSlash(filepath.Join(prefix, datePath, filepath.Base(fileName)))
}
