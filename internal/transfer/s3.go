package transfer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tstomkv/internal/config"
	"tstomkv/internal/logging"
)

// S3 maps remote paths onto object keys in a single bucket: the leading slash
// is dropped, so /recordings/a.ts is stored as recordings/a.ts.
type S3 struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewS3 builds a client for an S3-compatible endpoint.
func NewS3(cfg config.S3, logger *slog.Logger) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, transferErr("s3 connection", cfg.Endpoint, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &S3{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// ObjectKey converts a remote path to its object key.
func ObjectKey(remote string) string {
	return strings.TrimPrefix(path.Clean("/"+remote), "/")
}

// ObjectPath converts an object key back to a remote path.
func ObjectPath(key string) string {
	return "/" + strings.TrimPrefix(key, "/")
}

func (s *S3) Fetch(ctx context.Context, remote, local string) error {
	if err := s.client.FGetObject(ctx, s.bucket, ObjectKey(remote), local, minio.GetObjectOptions{}); err != nil {
		return transferErr("fetch", remote, err)
	}
	info, _ := os.Stat(local)
	if info != nil {
		s.logger.Debug("fetched", logging.String("remote", remote), logging.String("size", humanize.IBytes(uint64(info.Size()))))
	}
	return nil
}

func (s *S3) Commit(ctx context.Context, local, remote string) error {
	info, err := s.client.FPutObject(ctx, s.bucket, ObjectKey(remote), local, minio.PutObjectOptions{
		ContentType: contentType(remote),
	})
	if err != nil {
		return transferErr("commit", remote, err)
	}
	s.logger.Debug("committed", logging.String("remote", remote), logging.String("etag", info.ETag),
		logging.String("size", humanize.IBytes(uint64(info.Size))))
	return nil
}

func (s *S3) Remove(ctx context.Context, remote string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, ObjectKey(remote), minio.RemoveObjectOptions{}); err != nil {
		return transferErr("remove", remote, err)
	}
	return nil
}

func (s *S3) Stat(ctx context.Context, remote string) (RemoteFile, error) {
	info, err := s.client.StatObject(ctx, s.bucket, ObjectKey(remote), minio.StatObjectOptions{})
	if err != nil {
		return RemoteFile{}, transferErr("stat", remote, err)
	}
	return RemoteFile{Path: remote, Size: info.Size, ModTime: info.LastModified}, nil
}

func (s *S3) List(ctx context.Context, root, ext string) ([]RemoteFile, error) {
	prefix := ObjectKey(root)
	if prefix != "" {
		prefix += "/"
	}
	var files []RemoteFile
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, transferErr("list", root, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") || !hasExt(obj.Key, ext) {
			continue
		}
		files = append(files, RemoteFile{Path: ObjectPath(obj.Key), Size: obj.Size, ModTime: obj.LastModified})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *S3) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return transferErr("check", s.bucket, err)
	}
	if !ok {
		return transferErr("check", s.bucket, errors.New("bucket does not exist"))
	}
	return nil
}

func (s *S3) Close() error { return nil }

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mkv":
		return "video/x-matroska"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
