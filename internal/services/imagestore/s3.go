package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"recipebox/internal/config"
	"recipebox/internal/logging"
	"recipebox/internal/services"
)

// ObjectAPI is the subset of the S3 client used by Store.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store uploads recipe images to an S3 compatible bucket.
type Store struct {
	client     ObjectAPI
	bucket     string
	region     string
	endpoint   string
	prefix     string
	publicBase string
	logger     *slog.Logger
}

// New builds a Store from configuration. It returns nil when uploads are disabled.
func New(ctx context.Context, cfg config.Images, logger *slog.Logger) (*Store, error) {
	if !cfg.S3Enabled {
		return nil, nil
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "imagestore", "load aws config", "", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wires a Store around an existing client.
func NewWithClient(client ObjectAPI, cfg config.Images, logger *slog.Logger) *Store {
	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:     logging.NewComponentLogger(logger, "imagestore"),
	}
}

// Upload stores the image behind dataURI and returns its public URL.
func (s *Store) Upload(ctx context.Context, recipeID, dataURI string) (string, error) {
	img, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := s.objectKey(recipeID, img.Extension)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.MIME),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternal, "imagestore", "upload", "put object "+key, err)
	}
	link := s.PublicURL(key)
	s.logger.Info("recipe image uploaded",
		logging.RecipeID(recipeID),
		logging.String("object_key", key),
		logging.Int("image_bytes", len(img.Data)),
	)
	return link, nil
}

// Delete removes the object behind link. Links outside this store are ignored.
func (s *Store) Delete(ctx context.Context, link string) error {
	key := s.ObjectKeyFromLink(link)
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return services.Wrap(services.ErrExternal, "imagestore", "delete", "delete object "+key, err)
	}
	return nil
}

// PublicURL returns the URL clients use to fetch key.
func (s *Store) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case s.publicBase != "":
		return s.publicBase + "/" + escaped
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
	}
}

// ObjectKeyFromLink reverses PublicURL; it returns "" for foreign links.
func (s *Store) ObjectKeyFromLink(link string) string {
	base := strings.TrimSuffix(s.PublicURL(""), "/")
	rest, ok := strings.CutPrefix(strings.TrimSpace(link), base+"/")
	if !ok || rest == "" {
		return ""
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return ""
	}
	return key
}

func (s *Store) objectKey(recipeID, ext string) string {
	recipeID = strings.TrimSpace(recipeID)
	if recipeID == "" {
		recipeID = "unsaved"
	}
	name := uuid.NewString() + ext
	if s.prefix == "" {
		return recipeID + "/" + name
	}
	return s.prefix + "/" + recipeID + "/" + name
}

type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// CheckBucket confirms the bucket exists and the credentials can reach it.
// Clients without HeadBucket are assumed healthy.
func (s *Store) CheckBucket(ctx context.Context) error {
	head, ok := s.client.(bucketAPI)
	if !ok {
		return nil
	}
	if _, err := head.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return services.Wrap(services.ErrExternal, "imagestore", "check bucket", "head bucket "+s.bucket, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}
