package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/normalizer"
	"github.com/address-resolver/internal/parser"
)

// AddressServiceConfig tunes AddressService
type AddressServiceConfig struct {
	Suggestions  int  // suggestions attached to unresolved results, 0 disables
	QueueReviews bool // push unresolved results to the review queue
	Workers      int  // batch parallelism
}

// ExtractResult is the diagnostic view of one free-text address
type ExtractResult struct {
	Text        string              `json:"text"`
	Extracted   models.Components   `json:"extracted"`
	Cleaned     models.Components   `json:"cleaned"`
	Suggestions []models.Suggestion `json:"suggestions,omitempty"`
}

// ServiceStats summarises the resolutions served since start
type ServiceStats struct {
	Uptime          string                  `json:"uptime"`
	StartTime       time.Time               `json:"start_time"`
	MasterVersion   string                  `json:"master_version"`
	MasterRecords   int                     `json:"master_records"`
	TotalResolved   int64                   `json:"total_resolved"`
	Matched         int64                   `json:"matched"`
	Fallback        int64                   `json:"fallback"`
	CacheHits       int64                   `json:"cache_hits"`
	MatchRate       float64                 `json:"match_rate"`
	AvgProcessingMs float64                 `json:"avg_processing_ms"`
	ByStrategy      map[models.Strategy]int `json:"by_strategy"`
}

// AddressService resolves addresses against the current master with caching,
// suggestions and review queueing around the parser
type AddressService struct {
	parser    *parser.AddressParser
	suggester *parser.Suggester
	cache     ICacheService
	reviews   *ReviewService
	config    AddressServiceConfig
	logger    *zap.Logger
	startTime time.Time

	master atomic.Pointer[masterdata.Master]

	total     atomic.Int64
	matched   atomic.Int64
	cacheHits atomic.Int64
	elapsedUs atomic.Int64

	mu         sync.Mutex
	byStrategy map[models.Strategy]int
}

// NewAddressService creates an AddressService. cache and reviews may be nil.
func NewAddressService(p *parser.AddressParser, suggester *parser.Suggester, master *masterdata.Master,
	cache ICacheService, reviews *ReviewService, config AddressServiceConfig, logger *zap.Logger) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if suggester == nil {
		suggester = parser.NewSuggester(p.Resolver().Cleaner(), 0)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	as := &AddressService{
		parser:     p,
		suggester:  suggester,
		cache:      cache,
		reviews:    reviews,
		config:     config,
		logger:     logger,
		startTime:  time.Now(),
		byStrategy: make(map[models.Strategy]int),
	}
	if master == nil {
		master = masterdata.EmptyMaster()
	}
	as.master.Store(master)
	return as
}

// Master returns the master currently used for resolution
func (as *AddressService) Master() *masterdata.Master {
	return as.master.Load()
}

// SetMaster swaps the master and drops cache entries built from older ones
func (as *AddressService) SetMaster(ctx context.Context, m *masterdata.Master) error {
	old := as.master.Swap(m)
	as.logger.Info("Master data replaced",
		zap.String("old_version", old.Version()),
		zap.String("new_version", m.Version()),
		zap.Int("records", m.Len()))

	if as.cache == nil {
		return nil
	}
	return as.cache.InvalidateByMasterVersion(ctx, m.Version())
}

// Resolve resolves one input. It never fails: cache and review queue
// errors are logged and the result is still returned.
func (as *AddressService) Resolve(ctx context.Context, in models.RawGeoInput) *models.ResolveResult {
	start := time.Now()
	master := as.Master()
	key := CacheKey(master.Version(), in)

	if as.cache != nil {
		entry, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache get failed", zap.Error(err))
		} else if found && entry.MasterVersion == master.Version() {
			result := entry.Result
			result.FromCache = true
			result.ProcessingTimeMs = time.Since(start).Milliseconds()
			as.cacheHits.Add(1)
			as.record(&result, time.Since(start))
			return &result
		}
	}

	parsed := as.parser.Parse(in, master)
	result := &models.ResolveResult{
		Input:         in,
		Extracted:     parsed.Extracted,
		Resolved:      parsed.Resolved,
		MasterVersion: master.Version(),
	}

	if result.NeedsReview() && as.config.Suggestions > 0 {
		result.Suggestions = as.suggester.Suggest(in, master, as.config.Suggestions)
	}

	if result.NeedsReview() && as.config.QueueReviews && as.reviews != nil {
		if _, err := as.reviews.Enqueue(ctx, "", "api", 0, in, result.Resolved, result.Suggestions); err != nil {
			as.logger.Warn("Review enqueue failed", zap.Error(err))
		}
	}

	if as.cache != nil {
		if err := as.cache.Set(ctx, key, models.NewCacheEntry(*result)); err != nil {
			as.logger.Warn("Cache set failed", zap.Error(err))
		}
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	as.record(result, time.Since(start))
	return result
}

// ResolveBatch resolves inputs in parallel and returns results in input order
func (as *AddressService) ResolveBatch(ctx context.Context, inputs []models.RawGeoInput) ([]*models.ResolveResult, error) {
	results := make([]*models.ResolveResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(as.config.Workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = as.Resolve(gctx, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Extract runs extraction and cleaning on text without resolving it
func (as *AddressService) Extract(text string) *ExtractResult {
	extracted := as.parser.Extract(text)
	cleaner := as.parser.Resolver().Cleaner()

	res := &ExtractResult{
		Text:      text,
		Extracted: extracted,
		Cleaned: models.Components{
			Subdistrict: cleaner.Clean(extracted.Subdistrict, normalizer.KindSubdistrict),
			District:    cleaner.Clean(extracted.District, normalizer.KindDistrict),
			Province:    cleaner.CanonicalProvince(extracted.Province),
			PostalCode:  normalizer.NormalizePostalCode(extracted.PostalCode),
		},
	}

	if as.config.Suggestions > 0 {
		in := parser.Fill(models.RawGeoInput{FreeText: text}, extracted)
		res.Suggestions = as.suggester.Suggest(in, as.Master(), as.config.Suggestions)
	}
	return res
}

// Stats returns counters collected since the service started
func (as *AddressService) Stats() ServiceStats {
	master := as.Master()
	total := as.total.Load()
	matched := as.matched.Load()

	stats := ServiceStats{
		Uptime:        time.Since(as.startTime).Round(time.Second).String(),
		StartTime:     as.startTime,
		MasterVersion: master.Version(),
		MasterRecords: master.Len(),
		TotalResolved: total,
		Matched:       matched,
		Fallback:      total - matched,
		CacheHits:     as.cacheHits.Load(),
		ByStrategy:    make(map[models.Strategy]int),
	}
	if total > 0 {
		stats.MatchRate = float64(matched) / float64(total)
		stats.AvgProcessingMs = float64(as.elapsedUs.Load()) / float64(total) / 1000
	}

	as.mu.Lock()
	for s, n := range as.byStrategy {
		stats.ByStrategy[s] = n
	}
	as.mu.Unlock()

	return stats
}

// GetStartTime returns when the service was created
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}

func (as *AddressService) record(result *models.ResolveResult, elapsed time.Duration) {
	as.total.Add(1)
	as.elapsedUs.Add(elapsed.Microseconds())
	if result.Resolved.Matched {
		as.matched.Add(1)
	}

	as.mu.Lock()
	as.byStrategy[result.Resolved.Strategy]++
	as.mu.Unlock()
}
