package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"go.uber.org/zap"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ImagemService stores part image files in the uploads directory and
// removes them when their last database reference disappears.
type ImagemService struct {
	imagemRepo *repository.ImagemRepository
	uploadsDir string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewImagemService creates the image service and its uploads directory.
func NewImagemService(imagemRepo *repository.ImagemRepository, uploadsDir string, logger *zap.Logger) (*ImagemService, error) {
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &ImagemService{
		imagemRepo: imagemRepo,
		uploadsDir: uploadsDir,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}, nil
}

// AllowedFile reports whether the filename carries an accepted image
// extension.
func AllowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SaveUpload stores one uploaded image under a collision-free name derived
// from the part code and returns the stored filename.
func (s *ImagemService) SaveUpload(codigo string, file *multipart.FileHeader) (string, error) {
	if !AllowedFile(file.Filename) {
		return "", fmt.Errorf("file extension not allowed: %s", file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	filename := s.buildFilename(codigo, filepath.Ext(file.Filename))
	if err := s.writeFile(filename, src); err != nil {
		return "", err
	}
	return filename, nil
}

// DownloadFromURL fetches an image over HTTP and stores it like an upload.
// The extension comes from the URL path, falling back to the response
// content type.
func (s *ImagemService) DownloadFromURL(ctx context.Context, url, codigo string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported url scheme: %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}

	ext := strings.ToLower(filepath.Ext(strings.SplitN(filepath.Base(url), "?", 2)[0]))
	if !allowedExtensions[ext] {
		contentType := resp.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "image/") {
			ext = "." + strings.TrimPrefix(contentType, "image/")
		} else {
			ext = ".jpg"
		}
	}

	filename := s.buildFilename(codigo, ext)
	if err := s.writeFile(filename, resp.Body); err != nil {
		return "", err
	}
	return filename, nil
}

func (s *ImagemService) buildFilename(codigo, ext string) string {
	base := codigo
	if base == "" {
		base = "img"
	}
	name := fmt.Sprintf("%s_%s_%s%s",
		base,
		time.Now().Format("20060102150405"),
		uuid.New().String()[:8],
		strings.ToLower(ext))
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

func (s *ImagemService) writeFile(filename string, src io.Reader) error {
	dst, err := os.Create(filepath.Join(s.uploadsDir, filename))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// FilePath returns the on-disk path of a stored image.
func (s *ImagemService) FilePath(filename string) string {
	return filepath.Join(s.uploadsDir, filepath.Base(filename))
}

// Delete removes an image record; the physical file goes too once no other
// record references the same filename.
func (s *ImagemService) Delete(ctx context.Context, id uint) error {
	imagem, err := s.imagemRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.imagemRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete imagem: %w", err)
	}

	count, err := s.imagemRepo.CountByFilename(ctx, imagem.Filename)
	if err != nil {
		return fmt.Errorf("count filename refs: %w", err)
	}
	if count == 0 {
		s.RemoveFile(imagem.Filename)
	}
	return nil
}

// RemoveFile deletes a stored file, logging and swallowing filesystem
// errors: a missing file must not fail the surrounding mutation.
func (s *ImagemService) RemoveFile(filename string) {
	path := s.FilePath(filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove image file",
			zap.String("filename", filename),
			zap.Error(err))
	}
}
