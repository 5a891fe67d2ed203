package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"vidtube/internal/config"
	"vidtube/internal/logging"
	domain "vidtube/internal/model"
)

// MediaUploader stores user media and hands back public URLs.
type MediaUploader interface {
	// UploadImage normalizes the image to kind's geometry as JPEG.
	UploadImage(ctx context.Context, in domain.FileInput, kind domain.ImageKind) (*domain.UploadResult, error)
	// UploadVideo streams the file as-is. Duration is filled when the
	// container is MP4/QuickTime and carries a movie header.
	UploadVideo(ctx context.Context, in domain.FileInput) (*domain.UploadResult, error)
	DeleteObject(ctx context.Context, key string) error
}

// MediaService handles media uploads to Cloudflare R2.
type MediaService struct {
	s3Client      *s3.Client
	uploader      *manager.Uploader
	bucket        string
	publicURL     string
	maxImageBytes int64
	maxVideoBytes int64
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg config.R2Config, limits config.UploadConfig) (*MediaService, error) {
	if !cfg.R2Configured() {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	// Videos go through the multipart uploader so large files never sit in
	// memory as a whole.
	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = limits.VideoPartSize
	})

	return &MediaService{
		s3Client:      s3Client,
		uploader:      uploader,
		bucket:        cfg.BucketName,
		publicURL:     strings.TrimSuffix(cfg.PublicURL, "/"),
		maxImageBytes: limits.MaxImageBytes,
		maxVideoBytes: limits.MaxVideoBytes,
	}, nil
}

// UploadImage enforces size/type, crops to the kind's geometry as JPEG, and uploads to R2.
func (s *MediaService) UploadImage(ctx context.Context, in domain.FileInput, kind domain.ImageKind) (*domain.UploadResult, error) {
	data, _, err := readAndValidateImage(in.File, in.Header, s.maxImageBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := resizeToJPEG(data, kind.Width, kind.Height, 85)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", kind.Folder, uuid.NewString(), domain.ImageExt)

	if err := s.putObject(ctx, key, jpegBytes, domain.ContentTypeJPEG, domain.ImageCacheControl); err != nil {
		return nil, err
	}

	return &domain.UploadResult{URL: s.objectURL(key), Key: key}, nil
}

// UploadVideo validates the container type, probes the duration and streams
// the file to R2 in parts.
func (s *MediaService) UploadVideo(ctx context.Context, in domain.FileInput) (*domain.UploadResult, error) {
	if in.Header.Size > s.maxVideoBytes {
		return nil, domain.ErrFileTooLarge
	}

	contentType, err := detectContentType(in.File, in.Header)
	if err != nil {
		return nil, err
	}
	ext, ok := domain.VideoExtension(contentType)
	if !ok {
		return nil, domain.ErrInvalidVideoType
	}

	var duration float64
	if contentType == domain.ContentTypeMP4 || contentType == domain.ContentTypeQuickTime {
		d, err := probeMP4Duration(in.File, in.Header.Size)
		if err != nil {
			logging.FromContext(ctx).Debug().Err(err).Str("file", in.Header.Filename).Msg("duration probe failed")
		} else {
			duration = d
		}
	}
	if _, err := in.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	key := fmt.Sprintf("%s/%s%s", domain.VideoFolder, uuid.NewString(), ext)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        io.LimitReader(in.File, s.maxVideoBytes),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("key", key).Msg("video upload failed")
		return nil, domain.ErrUploadFailed
	}

	return &domain.UploadResult{URL: s.objectURL(key), Key: key, Duration: duration}, nil
}

func (s *MediaService) objectURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

// detectContentType prefers the part header and sniffs the first bytes
// otherwise. The file is rewound afterwards.
func detectContentType(file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, 512)
		n, err := io.ReadFull(file, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		contentType = http.DetectContentType(head[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to rewind upload: %w", err)
		}
	}
	return normalizeContentType(contentType), nil
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	limitedReader := io.LimitReader(file, maxSize+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	contentType = normalizeContentType(contentType)
	if !domain.IsAllowedImageType(contentType) {
		return nil, "", domain.ErrInvalidImageType
	}

	return data, contentType, nil
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.Invalid("Unable to decode image")
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// putObject uploads bytes to R2 with metadata.
func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// DeleteObject removes an object by key. An empty key is a no-op.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}

// deleteQuietly is the best-effort cleanup used after a replaced or orphaned
// upload; failures only leave a stray object behind.
func deleteQuietly(ctx context.Context, media MediaUploader, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := media.DeleteObject(ctx, key); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete media object")
		}
	}
}
