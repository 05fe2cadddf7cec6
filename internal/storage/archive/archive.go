// Package archive pushes stored run directories to S3-compatible object
// storage and pulls them back.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the bucket location. Credentials fall back to the default
// AWS chain when AccessKeyID is empty.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// ConfigFromEnv reads CELLSIM_S3_* variables, leaving unset fields empty.
func ConfigFromEnv() Config {
	return Config{
		Bucket:    os.Getenv("CELLSIM_S3_BUCKET"),
		Prefix:    os.Getenv("CELLSIM_S3_PREFIX"),
		Region:    os.Getenv("CELLSIM_S3_REGION"),
		Endpoint:  os.Getenv("CELLSIM_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("CELLSIM_S3_PATH_STYLE"), "true"),
	}
}

type Archive struct {
	client *s3.Client
	bucket string
	prefix string
}

func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}
	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){endpoint}, optFns...)...)
	return &Archive{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (a *Archive) key(parts ...string) string {
	if a.prefix != "" {
		parts = append([]string{a.prefix}, parts...)
	}
	return path.Join(parts...)
}

// Push uploads every regular file of dir under <prefix>/<runID>/ and returns
// the number of objects written.
func (a *Archive) Push(ctx context.Context, runID, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, err
		}
		key := a.key(runID, e.Name())
		if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &a.bucket,
			Key:         &key,
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(e.Name())),
		}); err != nil {
			return n, fmt.Errorf("put %s: %w", key, err)
		}
		n++
	}
	return n, nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	}
	return "application/octet-stream"
}

func (a *Archive) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &a.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	slices.Sort(keys)
	return keys, nil
}

// List returns the archived run IDs in sorted order.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if a.prefix != "" {
		prefix = a.prefix + "/"
	}
	keys, err := a.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var runs []string
	for _, k := range keys {
		run, _, ok := strings.Cut(strings.TrimPrefix(k, prefix), "/")
		if ok && (len(runs) == 0 || runs[len(runs)-1] != run) {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

// Pull downloads an archived run into dir and returns the number of files
// written.
func (a *Archive) Pull(ctx context.Context, runID, dir string) (int, error) {
	prefix := a.key(runID) + "/"
	keys, err := a.listKeys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, fmt.Errorf("run %s not archived", runID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}
	for i, k := range keys {
		out, err := a.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &a.bucket, Key: &k})
		if err != nil {
			return i, fmt.Errorf("get %s: %w", k, err)
		}
		data, err := io.ReadAll(out.Body)
		_ = out.Body.Close()
		if err != nil {
			return i, err
		}
		if err := os.WriteFile(filepath.Join(dir, path.Base(k)), data, 0644); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}
