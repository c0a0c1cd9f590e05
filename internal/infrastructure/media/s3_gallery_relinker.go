// Package media provides gallery storage implementations backed by
// S3-compatible object storage.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	infraconfig "github.com/catalogbridge/backend/internal/infrastructure/config"
)

// Ensure S3GalleryRelinker implements MediaRelinker
var _ catalog.MediaRelinker = (*S3GalleryRelinker)(nil)

// maxGalleryObjects caps how many objects a single gallery listing walks
const maxGalleryObjects = 200

// S3GalleryRelinker reattaches product gallery images from an
// S3-compatible bucket. Gallery objects live under
// <gallery_root>/<sku>/ and are matched by SKU prefix. Compatible with
// AWS S3, RustFS and MinIO.
type S3GalleryRelinker struct {
	client      *s3.Client
	bucket      string
	galleryRoot string
	meta        catalog.ProductMetaRepository
	logger      *zap.Logger
}

// S3GalleryRelinkerOption is a functional option for configuring the relinker
type S3GalleryRelinkerOption func(*S3GalleryRelinker)

// WithLogger sets a custom logger for the relinker
func WithLogger(logger *zap.Logger) S3GalleryRelinkerOption {
	return func(r *S3GalleryRelinker) {
		r.logger = logger
	}
}

// NewS3GalleryRelinker creates a relinker from configuration
func NewS3GalleryRelinker(cfg *infraconfig.MediaConfig, meta catalog.ProductMetaRepository, opts ...S3GalleryRelinkerOption) (*S3GalleryRelinker, error) {
	if cfg == nil {
		return nil, errors.New("media configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("media bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("media access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("media secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid media endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	r := &S3GalleryRelinker{
		client:      client,
		bucket:      cfg.Bucket,
		galleryRoot: strings.Trim(cfg.GalleryRoot, "/"),
		meta:        meta,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewS3GalleryRelinkerWithClient creates a relinker with an existing S3
// client. Useful for testing.
func NewS3GalleryRelinkerWithClient(client *s3.Client, bucket, galleryRoot string, meta catalog.ProductMetaRepository, logger *zap.Logger) *S3GalleryRelinker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3GalleryRelinker{
		client:      client,
		bucket:      bucket,
		galleryRoot: strings.Trim(galleryRoot, "/"),
		meta:        meta,
		logger:      logger,
	}
}

// galleryPrefix builds the bucket prefix holding one SKU's gallery
func (r *S3GalleryRelinker) galleryPrefix(sku string) string {
	if r.galleryRoot == "" {
		return sku + "/"
	}
	return path.Join(r.galleryRoot, sku) + "/"
}

// ReattachGallery lists the gallery objects stored for the SKU and
// records them against the product. A SKU with no gallery objects is
// not an error; the product simply keeps no gallery.
func (r *S3GalleryRelinker) ReattachGallery(ctx context.Context, productID int64, sku string) error {
	if sku == "" {
		return errors.New("media: cannot reattach gallery without a SKU")
	}

	prefix := r.galleryPrefix(sku)
	out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(r.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(maxGalleryObjects),
	})
	if err != nil {
		return fmt.Errorf("media: failed to list gallery objects for %s: %w", sku, err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
			continue
		}
		keys = append(keys, *obj.Key)
	}

	if len(keys) > 0 {
		encoded, err := json.Marshal(keys)
		if err != nil {
			return fmt.Errorf("media: failed to encode gallery keys: %w", err)
		}
		if err := r.meta.Set(ctx, productID, catalog.MetaKeyGalleryImages, string(encoded)); err != nil {
			return err
		}
	}

	if err := r.meta.Set(ctx, productID, catalog.MetaKeyGalleryRelinked, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	r.logger.Debug("reattached product gallery",
		zap.Int64("product_id", productID),
		zap.String("sku", sku),
		zap.Int("objects", len(keys)))
	return nil
}
