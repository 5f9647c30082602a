package codeimage

import (
	"bytes"
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"inventory-system/pkg/constants"
	"inventory-system/pkg/filestorage"
)

const defaultSize = 256

// Generator превращает идентификатор оборудования в сохранённое изображение кода.
type Generator interface {
	Generate(ctx context.Context, identity string) (ref string, err error)
	Discard(ctx context.Context, ref string)
}

type QRGenerator struct {
	storage filestorage.FileStorageInterface
	logger  *zap.Logger
	size    int
}

func NewQRGenerator(storage filestorage.FileStorageInterface, logger *zap.Logger) *QRGenerator {
	return &QRGenerator{storage: storage, logger: logger, size: defaultSize}
}

// Encode - только PNG, без сохранения.
func Encode(identity string, size int) ([]byte, error) {
	if identity == "" {
		return nil, fmt.Errorf("пустой идентификатор для QR-кода")
	}
	return qrcode.Encode(identity, qrcode.Medium, size)
}

func (g *QRGenerator) Generate(ctx context.Context, identity string) (string, error) {
	png, err := Encode(identity, g.size)
	if err != nil {
		return "", fmt.Errorf("не удалось сгенерировать QR-код: %w", err)
	}

	ref, err := g.storage.Save(ctx, bytes.NewReader(png), identity+".png", constants.UploadPrefixQRCodes)
	if err != nil {
		return "", fmt.Errorf("не удалось сохранить QR-код: %w", err)
	}
	return ref, nil
}

// Discard удаляет изображение; ошибка только логируется.
func (g *QRGenerator) Discard(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := g.storage.Delete(ctx, ref); err != nil {
		g.logger.Warn("не удалось удалить изображение QR-кода", zap.String("path", ref), zap.Error(err))
	}
}
