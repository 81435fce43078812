package backup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"
)

// S3Config holds the bucket location and static credentials for uploads.
type S3Config struct {
	BucketURL    string // s3://bucket[/prefix]
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

// S3Uploader copies snapshots to S3 by shelling out to `aws s3 cp`.
type S3Uploader struct {
	bucket string
	prefix string
	cfg    S3Config
}

// NewS3Uploader validates cfg and checks that the aws CLI is installed.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	return newS3Uploader(cfg, exec.LookPath)
}

func newS3Uploader(cfg S3Config, lookPath func(string) (string, error)) (*S3Uploader, error) {
	bucket, prefix, err := parseS3BucketURL(cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("s3: access key and secret key are required")
	}
	if _, err := lookPath("aws"); err != nil {
		return nil, errors.New("s3: aws cli not found in PATH")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	return &S3Uploader{bucket: bucket, prefix: prefix, cfg: cfg}, nil
}

// UploadFile copies localPath to s3://bucket/prefix/<basename>.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string) error {
	cmd := exec.CommandContext(ctx, "aws", u.args(localPath)...)
	cmd.Env = append(os.Environ(),
		"AWS_ACCESS_KEY_ID="+u.cfg.AccessKey,
		"AWS_SECRET_ACCESS_KEY="+u.cfg.SecretKey,
		"AWS_DEFAULT_REGION="+u.cfg.Region,
	)
	if token := strings.TrimSpace(u.cfg.SessionToken); token != "" {
		cmd.Env = append(cmd.Env, "AWS_SESSION_TOKEN="+token)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("s3 upload: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (u *S3Uploader) args(localPath string) []string {
	key := path.Base(localPath)
	if u.prefix != "" {
		key = path.Join(u.prefix, key)
	}
	args := []string{"s3", "cp", localPath, "s3://" + u.bucket + "/" + key,
		"--region", u.cfg.Region, "--only-show-errors"}
	if endpoint := endpointURL(u.cfg.Endpoint, u.cfg.UseSSL); endpoint != "" {
		args = append(args, "--endpoint-url", endpoint)
	}
	return args
}

func endpointURL(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case endpoint == "":
		return ""
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint
	case useSSL:
		return "https://" + endpoint
	default:
		return "http://" + endpoint
	}
}

func parseS3BucketURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("s3: parse bucket-url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", errors.New("s3: bucket-url must use s3:// scheme")
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", "", errors.New("s3: bucket-url missing bucket name")
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
