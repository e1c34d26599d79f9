package mirror

import (
	"context"
	"fmt"

	"resticdu/internal/config"
)

// NewFromConfig builds the Mirror a resticdu config's mirror block
// describes. An empty Type means the feature is disabled and callers
// should not invoke this.
func NewFromConfig(ctx context.Context, cfg config.MirrorConfig, cacheDir, artifactName string) (Mirror, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem mirror requires fs_root to be set")
		}
		return NewFileSystemMirror(cfg.FSRoot, artifactName)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 mirror requires s3_bucket to be set")
		}
		return NewS3Mirror(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, artifactName, cfg.S3AccessKey, cfg.S3SecretKey)
	case "":
		return nil, fmt.Errorf("mirror not configured")
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}
