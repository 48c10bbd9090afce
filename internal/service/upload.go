package service

import (
	a "bitwise74/recipe-api/aws"
	"bitwise74/recipe-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	minMultipartSize = 12 << 20
	keyCharset       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

const (
	FolderAvatars = "avatars"
	FolderRecipes = "recipes"
	FolderBlogs   = "blogs"
)

var ErrUploadsDisabled = errors.New("image uploads are not configured")

type Uploader struct {
	S3 *a.S3Client
}

func NewUploader(s *a.S3Client) *Uploader {
	return &Uploader{S3: s}
}

func (u *Uploader) Enabled() bool {
	return u != nil && u.S3 != nil
}

func objectKey(folder, ext string) (string, error) {
	id, err := gonanoid.Generate(keyCharset, 16)
	if err != nil {
		return "", err
	}

	return path.Join(folder, id+ext), nil
}

// Upload stores a validated image under folder and returns its public URL.
// The image's file is closed afterwards.
func (u *Uploader) Upload(ctx context.Context, folder string, img *validators.Image) (string, error) {
	if !u.Enabled() {
		return "", ErrUploadsDisabled
	}
	defer img.File.Close()

	key, err := objectKey(folder, img.Ext)
	if err != nil {
		return "", fmt.Errorf("failed to generate object key, %w", err)
	}

	objectInput := &s3.PutObjectInput{
		Bucket:        u.S3.Bucket,
		Key:           aws.String(key),
		Body:          img.File,
		ContentLength: aws.Int64(img.Size),
		ContentType:   aws.String(img.Mime),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	if img.Size > minMultipartSize {
		uploader := manager.NewUploader(u.S3.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = uploader.Upload(ctx, objectInput)
	} else {
		_, err = u.S3.C.PutObject(ctx, objectInput)
	}
	if err != nil {
		return "", fmt.Errorf("failed to upload image to s3, %w", err)
	}

	zap.L().Debug("Uploaded image", zap.String("key", key), zap.Int64("size", img.Size))
	return u.S3.URL(key), nil
}

// Delete removes an object previously returned by Upload. URLs hosted
// anywhere else, like the configured defaults, are left alone.
func (u *Uploader) Delete(ctx context.Context, url string) error {
	if !u.Enabled() || url == "" {
		return nil
	}

	key, ok := u.S3.KeyFromURL(url)
	if !ok {
		return nil
	}

	_, err := u.S3.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: u.S3.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s, %w", key, err)
	}

	return nil
}

// Replace deletes old after a successful upload has taken its place, logging
// instead of failing since the new image is already live
func (u *Uploader) Replace(ctx context.Context, old string) {
	if err := u.Delete(ctx, old); err != nil {
		zap.L().Error("Failed to cleanup old image", zap.String("url", old), zap.Error(err))
	}
}
