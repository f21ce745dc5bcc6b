package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/storage"
)

// Downloader pulls previously exported report CSVs back out of object
// storage, for operators replaying or inspecting past exports.
type Downloader struct {
	store storage.ObjectStorage
}

func NewDownloader(store storage.ObjectStorage) *Downloader {
	return &Downloader{store: store}
}

// Pull downloads every CSV object under prefix into destDir, keeping the key
// structure below the prefix. It returns the local paths written, sorted.
func (d *Downloader) Pull(ctx context.Context, prefix, destDir string) ([]string, error) {
	objects, err := d.store.ListObjects(ctx, strings.TrimSpace(prefix))
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}

	var keys []string
	for _, obj := range objects {
		if strings.HasSuffix(strings.ToLower(obj.Key), ".csv") {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no export CSVs found under prefix %q", prefix)
	}

	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		local := filepath.Join(destDir, relativeKey(prefix, key))
		if err := d.store.DownloadObject(ctx, key, local); err != nil {
			return nil, fmt.Errorf("download %s: %w", key, err)
		}
		paths = append(paths, local)
	}
	sort.Strings(paths)

	log.Info().
		Int("files", len(paths)).
		Str("prefix", prefix).
		Msg("export: pulled report files")

	return paths, nil
}

func relativeKey(prefix, key string) string {
	rel := strings.TrimPrefix(key, strings.TrimSpace(prefix))
	return strings.TrimPrefix(rel, "/")
}
