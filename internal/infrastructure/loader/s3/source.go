package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/resilience"
)

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

type objectAPI interface {
	keys(ctx context.Context, prefix string) ([]string, error)
	read(ctx context.Context, key string) ([]byte, error)
}

// Source reads the *.json objects under a prefix of an S3 compatible bucket.
// Access is configured statically; the bearer credential is not used.
type Source struct {
	api      objectAPI
	prefix   string
	executor *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) (*Source, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	options := &minio.Options{Secure: cfg.UseSSL, Region: region}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		options.Creds = credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), "")
	}
	client, err := minio.New(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return newSource(&minioAPI{client: client, bucket: bucket}, cfg.Prefix, executor), nil
}

func newSource(api objectAPI, prefix string, executor *resilience.Executor) *Source {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Source{api: api, prefix: prefix, executor: executor}
}

func (s *Source) Kind() string { return "s3" }

func (s *Source) List(ctx context.Context, _ string) ([]loader.Ref, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]loader.Ref, 0, len(keys))
	for _, key := range keys {
		rest := strings.TrimPrefix(key, s.prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		name, ok := loader.ModelName(path.Base(rest))
		if !ok {
			continue
		}
		refs = append(refs, loader.Ref{Name: name, Location: key})
	}
	return refs, nil
}

func (s *Source) Fetch(ctx context.Context, _ string, ref loader.Ref) ([]byte, error) {
	if s.executor == nil {
		return s.api.read(ctx, ref.Location)
	}
	return resilience.Call(ctx, s.executor, "s3.get", resilience.DomainClassifier, func(ctx context.Context) ([]byte, error) {
		return s.api.read(ctx, ref.Location)
	})
}

func (s *Source) keys(ctx context.Context) ([]string, error) {
	if s.executor == nil {
		return s.api.keys(ctx, s.prefix)
	}
	return resilience.Call(ctx, s.executor, "s3.list", resilience.DomainClassifier, func(ctx context.Context) ([]string, error) {
		return s.api.keys(ctx, s.prefix)
	})
}

type minioAPI struct {
	client *minio.Client
	bucket string
}

func (m *minioAPI) keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, classify("s3 list", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (m *minioAPI) read(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify("s3 get", err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify("s3 get", err)
	}
	return raw, nil
}

func classify(operation string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "AccessDenied" || resp.Code == "InvalidAccessKeyId" || resp.Code == "SignatureDoesNotMatch":
		return domain.WrapError(domain.ErrUnauthorized, operation, err)
	case resp.Code == "SlowDown" || resp.Code == "ServiceUnavailable" || resp.Code == "InternalError" || resp.StatusCode >= 500:
		return domain.WrapError(domain.ErrTemporary, operation, err)
	default:
		return loader.TransportError(operation, err)
	}
}
