package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AvatarStorage keeps profile images on local disk and hands back public
// URLs served from the /uploads static route.
type AvatarStorage struct {
	basePath string
	baseURL  string
}

const maxAvatarBytes = 5 * 1024 * 1024

func NewAvatarStorage(basePath, baseURL string) *AvatarStorage {
	_ = os.MkdirAll(basePath, 0755)
	return &AvatarStorage{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}
}

// SaveAvatar validates and stores an uploaded image, returning its public
// URL. Previous avatars for the user are left in place; the profile row only
// points at the newest one.
func (s *AvatarStorage) SaveAvatar(userID uint, file multipart.File, header *multipart.FileHeader) (string, error) {
	if !isValidImageName(header.Filename) {
		return "", fmt.Errorf("invalid file type. Only JPG, PNG, GIF, WEBP allowed")
	}
	if header.Size > maxAvatarBytes {
		return "", fmt.Errorf("file too large. Maximum size is 5MB")
	}

	userDir := filepath.Join(s.basePath, strconv.Itoa(int(userID)))
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("avatar_%d%s", time.Now().Unix(), strings.ToLower(filepath.Ext(header.Filename)))
	dst, err := os.Create(filepath.Join(userDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return fmt.Sprintf("%s/%d/%s", s.baseURL, userID, name), nil
}

func isValidImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
