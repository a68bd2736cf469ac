// Package bootstrap builds the components shared by the API server and the
// migration CLI from a loaded configuration.
package bootstrap

import (
	"context"
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/normalizer"
	"github.com/address-resolver/internal/parser"
	"github.com/address-resolver/internal/search"
)

// Cache drivers
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheHybrid = "hybrid"
)

// ParseMaster parses the configured dump or JSON directory
func ParseMaster(cfg config.MasterConfig, logger *zap.Logger) (*masterdata.Master, masterdata.LoadStats, error) {
	master, stats, err := masterdata.NewLoader(cfg.Tables, logger).LoadSource(cfg.Source())
	if err != nil {
		return master, stats, eris.Wrapf(err, "bootstrap: load master %s", cfg.Source())
	}
	return master, stats, nil
}

// LoadMaster parses the configured source. With a snapshot store it first
// looks for the snapshot of the source's current version and saves a new
// one after parsing. When the source cannot be read the newest snapshot
// is used instead.
func LoadMaster(ctx context.Context, cfg config.MasterConfig, logger *zap.Logger) (*masterdata.Master, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SnapshotPath == "" {
		master, _, err := ParseMaster(cfg, logger)
		return master, err
	}

	store, err := masterdata.NewSQLiteStore(ctx, cfg.SnapshotPath)
	if err != nil {
		return nil, eris.Wrap(err, "bootstrap: open snapshot store")
	}
	defer store.Close()

	var master *masterdata.Master
	version, err := masterdata.SourceVersion(cfg.Source())
	if err != nil {
		logger.Warn("Master source unreadable, using newest snapshot",
			zap.String("source", cfg.Source()), zap.Error(err))
		master, err = store.Latest(ctx)
	} else {
		master, err = store.LoadVersion(ctx, version)
	}
	switch {
	case err == nil:
		logger.Info("Master loaded from snapshot",
			zap.String("version", master.Version()),
			zap.Int("records", master.Len()))
		return master, nil
	case !errors.Is(err, masterdata.ErrVersionNotFound):
		return nil, eris.Wrap(err, "bootstrap: read snapshot")
	}

	master, _, err = ParseMaster(cfg, logger)
	if err != nil {
		return master, err
	}
	if err := store.Save(ctx, master, cfg.Source()); err != nil {
		logger.Warn("Snapshot not saved", zap.String("path", cfg.SnapshotPath), zap.Error(err))
	}
	return master, nil
}

// Markers returns the vocabulary at path, or the embedded one when path is empty
func Markers(path string) (*normalizer.Markers, error) {
	if path == "" {
		return normalizer.DefaultMarkers(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "bootstrap: read markers %s", path)
	}
	v, err := normalizer.LoadVocabulary(b)
	if err != nil {
		return nil, eris.Wrapf(err, "bootstrap: markers %s", path)
	}
	return normalizer.NewMarkers(v), nil
}

// NewParser builds the resolution pipeline and the suggester that shares its cleaner
func NewParser(cfg config.ResolverConfig, logger *zap.Logger) (*parser.AddressParser, *parser.Suggester, error) {
	markers, err := Markers(cfg.MarkersPath)
	if err != nil {
		return nil, nil, err
	}
	p := parser.NewAddressParser(markers, cfg.MemoSize, logger)
	return p, parser.NewSuggester(p.Resolver().Cleaner(), cfg.MinScore), nil
}

// NewCache selects the resolve cache. The none driver returns nil.
func NewCache(cfg config.CacheConfig, logger *zap.Logger) (services.ICacheService, error) {
	switch cfg.Driver {
	case CacheNone:
		return nil, nil
	case "", CacheMemory:
		return services.NewCacheService(cfg.Size, cfg.TTL, logger), nil
	case CacheRedis:
		rcs, err := services.NewRedisCacheService(cfg.RedisURL, cfg.Prefix, cfg.TTL, logger)
		if err != nil {
			return nil, eris.Wrap(err, "bootstrap: redis cache")
		}
		return rcs, nil
	case CacheHybrid:
		rcs, err := services.NewRedisCacheService(cfg.RedisURL, cfg.Prefix, cfg.TTL, logger)
		if err != nil {
			return nil, eris.Wrap(err, "bootstrap: redis cache")
		}
		return services.NewHybridCacheService(services.NewCacheService(cfg.Size, cfg.TTL, logger), rcs, logger), nil
	default:
		return nil, eris.Errorf("bootstrap: unknown cache driver %q", cfg.Driver)
	}
}

// NewReviews opens the MongoDB review queue, or an in-memory one when no URL is set
func NewReviews(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*services.ReviewService, error) {
	if cfg.URL == "" {
		return services.NewReviewService(services.NewMemoryReviewStore(), logger), nil
	}
	store, err := services.ConnectMongoReviewStore(ctx, cfg.URL, cfg.Database, logger)
	if err != nil {
		return nil, eris.Wrap(err, "bootstrap: review store")
	}
	return services.NewReviewService(store, logger), nil
}

// NewSearcher connects to Meilisearch. It returns nil when no URL is set.
func NewSearcher(cfg config.MeilisearchConfig, logger *zap.Logger) (*search.GazetteerSearcher, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	searcher, err := search.NewGazetteerSearcher(search.SearchConfig{
		Host:      cfg.URL,
		APIKey:    cfg.APIKey,
		IndexName: cfg.Index,
		Timeout:   cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, eris.Wrap(err, "bootstrap: meilisearch")
	}
	return searcher, nil
}
