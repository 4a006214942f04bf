package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aouyang1/einkframe/metrics"
	"github.com/aouyang1/einkframe/photocache"
	"github.com/aouyang1/einkframe/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jonboulle/clockwork"
)

const syncTimeout = 30 * time.Minute

// Bucket is the remote photo store.
type Bucket interface {
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, w io.WriterAt, name string) error
}

// S3Bucket lists and downloads objects from a single s3 bucket.
type S3Bucket struct {
	client     *s3.Client
	downloader *manager.Downloader
	name       string
}

// NewS3Bucket loads the shared aws configuration for profile.
func NewS3Bucket(ctx context.Context, profile, bucket string) (*S3Bucket, error) {
	opts := []func(*config.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	// Load the Shared AWS Configuration (~/.aws/config)
	ctxCfg, cancelCfg := context.WithTimeout(ctx, 3*time.Second)
	cfg, err := config.LoadDefaultConfig(ctxCfg, opts...)
	cancelCfg()
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config, %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Bucket{
		client:     client,
		downloader: manager.NewDownloader(client),
		name:       bucket,
	}, nil
}

func (b *S3Bucket) List(ctx context.Context) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to list s3 bucket, %s, %w", b.name, err)
		}
		for _, object := range page.Contents {
			names = append(names, aws.ToString(object.Key))
		}
	}
	return names, nil
}

func (b *S3Bucket) Download(ctx context.Context, w io.WriterAt, name string) error {
	if _, err := b.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(name),
	}); err != nil {
		return fmt.Errorf("unable to download object from s3, %s, %w", name, err)
	}
	return nil
}

// SyncResult counts the changes a sync made to the cache.
type SyncResult struct {
	Downloaded int
	Deleted    int
}

// RemoteManager mirrors a bucket into the photo cache.
type RemoteManager struct {
	bucket   Bucket
	cache    *photocache.Cache
	interval time.Duration
	clock    clockwork.Clock
}

func NewRemoteManager(bucket Bucket, cache *photocache.Cache, interval time.Duration, clock clockwork.Clock) *RemoteManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RemoteManager{
		bucket:   bucket,
		cache:    cache,
		interval: interval,
		clock:    clock,
	}
}

func (r *RemoteManager) getRemoteFiles(ctx context.Context) (mapset.Set[string], error) {
	objects, err := r.bucket.List(ctx)
	if err != nil {
		return nil, err
	}

	remoteFiles := mapset.NewSet[string]()
	for name := range slices.Values(objects) {
		// nested keys would escape the flat cache layout
		if name != filepath.Base(name) || !util.IsSupported(name) {
			continue
		}
		remoteFiles.Add(name)
	}

	if remoteFiles.Cardinality() == 0 {
		slog.Info("no remote files found")
	}
	return remoteFiles, nil
}

// download writes into a temp file and renames it so the cache never lists a
// partially written photo.
func (r *RemoteManager) download(ctx context.Context, name string) error {
	if err := os.MkdirAll(r.cache.Dir, 0o755); err != nil {
		return fmt.Errorf("unable to create cache directory, %w", err)
	}

	f, err := os.CreateTemp(r.cache.Dir, "."+name+".*.part")
	if err != nil {
		return fmt.Errorf("unable to create file for s3 download, %s, %w", name, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := r.bucket.Download(ctx, f, name); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to close downloaded file, %s, %w", name, err)
	}
	return os.Rename(tmp, filepath.Join(r.cache.Dir, name))
}

func (r *RemoteManager) SyncFolder(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	localFiles, err := r.cache.Names()
	if err != nil {
		return result, err
	}

	remoteFiles, err := r.getRemoteFiles(ctx)
	if err != nil {
		return result, err
	}

	toDelete := localFiles.Difference(remoteFiles).ToSlice()
	toDownload := remoteFiles.Difference(localFiles).ToSlice()
	if len(toDelete) > 0 {
		slog.Info("deleting local files", "count", len(toDelete), "names", toDelete)
		for name := range slices.Values(toDelete) {
			if err := r.cache.Remove(name); err != nil {
				slog.Warn("unable to remove local file", "name", name, "error", err)
				continue
			}
			result.Deleted++
		}
	}
	if len(toDownload) > 0 {
		slog.Info("adding files", "count", len(toDownload), "names", toDownload)
		for name := range slices.Values(toDownload) {
			if err := r.download(ctx, name); err != nil {
				slog.Warn("error while downloading s3 object", "name", name, "error", err)
				continue
			}
			result.Downloaded++
		}
	}

	metrics.SyncedFiles.WithLabelValues("downloaded").Add(float64(result.Downloaded))
	metrics.SyncedFiles.WithLabelValues("deleted").Add(float64(result.Deleted))
	return result, nil
}

func (r *RemoteManager) syncOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	result, err := r.SyncFolder(ctx)
	if err != nil {
		slog.Warn("error while syncing with remote", "error", err)
		return
	}
	slog.Debug("remote sync finished", "downloaded", result.Downloaded, "deleted", result.Deleted)
}

// Run syncs immediately and then every interval until ctx is cancelled.
func (r *RemoteManager) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	// Initial sync
	r.syncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.syncOnce(ctx)
		}
	}
}
