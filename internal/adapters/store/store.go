// Package store holds the content stores file bodies are persisted to.
package store

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dkeye/cowork/internal/config"
	"github.com/dkeye/cowork/internal/core"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// New builds the store named by cfg.Driver. The "none" driver yields a
// nil store and the coordinator keeps content in memory only.
func New(cfg config.StoreConfig) (core.ContentStore, error) {
	switch cfg.Driver {
	case "", "none":
		log.Info().Str("module", "adapters.store").Msg("content store disabled")
		return nil, nil
	case "fs":
		log.Info().Str("module", "adapters.store").Str("dir", cfg.Dir).Msg("using fs content store")
		return NewFSStore(afero.NewOsFs(), cfg.Dir), nil
	case "s3":
		client, err := NewS3Client(cfg.S3)
		if err != nil {
			return nil, err
		}
		log.Info().Str("module", "adapters.store").Str("bucket", cfg.S3.Bucket).Msg("using s3 content store")
		return NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// objectName maps a resource id onto one path segment. Escaping keeps
// the mapping reversible and blocks traversal out of the store root.
func objectName(resourceID string) (string, error) {
	if resourceID == "" {
		return "", fmt.Errorf("empty resource id")
	}
	name := url.PathEscape(resourceID)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return name, nil
}
