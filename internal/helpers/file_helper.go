package helpers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

type UploadConfig struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
	UploadBasePath   string
}

var DefaultImageUploadConfig = UploadConfig{
	MaxSizeBytes: 5 * 1024 * 1024, // 5MB
	AllowedMimeTypes: []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	},
	UploadBasePath: "./uploads/",
}

// UploadFile stores fileHeader under config.UploadBasePath/uploadType and
// returns the stored path relative to UploadBasePath, slash-separated.
func UploadFile(fileHeader *multipart.FileHeader, uploadType string, config UploadConfig) (string, error) {
	if fileHeader.Size > config.MaxSizeBytes {
		return "", fmt.Errorf("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	mimeType := http.DetectContentType(buffer[:n])
	if !slices.Contains(config.AllowedMimeTypes, mimeType) {
		return "", fmt.Errorf("invalid file type. Allowed types: %v", config.AllowedMimeTypes)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	uploadPath := filepath.Join(config.UploadBasePath, uploadType)
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), strings.ToLower(filepath.Ext(fileHeader.Filename)))
	dst, err := os.Create(filepath.Join(uploadPath, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return uploadType + "/" + filename, nil
}

// DeleteFile removes a path previously returned by UploadFile. Missing files
// are not an error.
func DeleteFile(basePath, storedPath string) error {
	if storedPath == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(storedPath))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("refusing to delete %q", storedPath)
	}
	err := os.Remove(filepath.Join(basePath, clean))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
