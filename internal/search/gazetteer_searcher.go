package search

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/normalizer"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const seedBatchSize = 1000

// ErrEmptyQuery is returned when a search has neither text nor filter
var ErrEmptyQuery = errors.New("search: empty query")

// GazetteerSearcher searches the master list through Meilisearch
type GazetteerSearcher struct {
	client        meilisearch.ServiceManager
	logger        *zap.Logger
	indexName     string
	timeout       time.Duration
	maxCandidates int
}

// SearchConfig configures the Meilisearch connection
type SearchConfig struct {
	Host          string
	APIKey        string
	IndexName     string
	Timeout       time.Duration
	MaxCandidates int
}

// Document is one master record as stored in the index
type Document struct {
	ID            string `json:"id"`
	Subdistrict   string `json:"subdistrict"`
	District      string `json:"district"`
	Province      string `json:"province"`
	PostalCode    string `json:"postal_code"`
	Romanized     string `json:"romanized"`
	MasterVersion string `json:"master_version"`
}

// NewGazetteerSearcher creates GazetteerSearcher and checks the server is healthy
func NewGazetteerSearcher(config SearchConfig, logger *zap.Logger) (*GazetteerSearcher, error) {
	client := meilisearch.New(config.Host, meilisearch.WithAPIKey(config.APIKey))

	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("cannot connect to Meilisearch: %w", err)
	}

	maxCandidates := config.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 20
	}

	return &GazetteerSearcher{
		client:        client,
		logger:        logger,
		indexName:     config.IndexName,
		timeout:       config.Timeout,
		maxCandidates: maxCandidates,
	}, nil
}

// NewDocument converts a master record into an index document
func NewDocument(rec models.GeoRecord, version string) Document {
	sum := sha256.Sum256([]byte(rec.Key()))
	return Document{
		ID:            hex.EncodeToString(sum[:12]),
		Subdistrict:   rec.Subdistrict,
		District:      rec.District,
		Province:      rec.Province,
		PostalCode:    rec.PostalCode,
		Romanized:     normalizer.Romanize(rec.Subdistrict + " " + rec.District + " " + rec.Province),
		MasterVersion: version,
	}
}

// Search returns records matching q, best first. Either q or the filter must be set.
func (gs *GazetteerSearcher) Search(q string, filter Filter, limit int) ([]models.GeoRecord, error) {
	q = normalizer.NormalizeText(q)
	f := filter.String()
	if q == "" && f == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 || limit > gs.maxCandidates {
		limit = gs.maxCandidates
	}

	index := gs.client.Index(gs.indexName)
	result, err := index.Search(q, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Filter: f,
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch query failed: %w", err)
	}

	return parseHits(result.Hits), nil
}

// parseHits converts raw hits into records, skipping incomplete ones
func parseHits(hits []interface{}) []models.GeoRecord {
	records := make([]models.GeoRecord, 0, len(hits))
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		rec := models.GeoRecord{
			Subdistrict: stringField(hitMap, "subdistrict"),
			District:    stringField(hitMap, "district"),
			Province:    stringField(hitMap, "province"),
			PostalCode:  stringField(hitMap, "postal_code"),
		}
		if rec.Subdistrict == "" || rec.District == "" || rec.Province == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// BuildIndexes applies searchable, filterable and typo settings to the index
func (gs *GazetteerSearcher) BuildIndexes() error {
	index := gs.client.Index(gs.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"subdistrict", "district", "province", "romanized", "postal_code"},
		FilterableAttributes: []string{"province", "district", "postal_code", "master_version"},
		SortableAttributes:   []string{"province", "district"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms:             Synonyms(normalizer.DefaultMarkers().Vocabulary().ProvinceAliases),
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  3,
				TwoTypos: 7,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure index %s: %w", gs.indexName, err)
	}

	gs.logger.Info("Configured Meilisearch index",
		zap.String("index", gs.indexName),
		zap.Int64("task_uid", task.TaskUID))
	return nil
}

// Synonyms turns alias -> canonical pairs into a symmetric synonym map
func Synonyms(aliases map[string]string) map[string][]string {
	out := make(map[string][]string)
	for alias, canonical := range aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" || alias == canonical {
			continue
		}
		out[alias] = appendUnique(out[alias], canonical)
		out[canonical] = appendUnique(out[canonical], alias)
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// SeedRecords uploads the master list in batches
func (gs *GazetteerSearcher) SeedRecords(records []models.GeoRecord, version string) error {
	if len(records) == 0 {
		return errors.New("no records to seed")
	}

	index := gs.client.Index(gs.indexName)
	documents := make([]Document, len(records))
	for i, rec := range records {
		documents[i] = NewDocument(rec, version)
	}

	for _, b := range Batches(len(documents), seedBatchSize) {
		task, err := index.AddDocuments(documents[b[0]:b[1]], "id")
		if err != nil {
			return fmt.Errorf("add documents %d-%d: %w", b[0], b[1], err)
		}

		gs.logger.Info("Added document batch",
			zap.Int("from", b[0]),
			zap.Int("to", b[1]),
			zap.Int64("task_uid", task.TaskUID))
	}

	gs.logger.Info("Seeded search index",
		zap.String("master_version", version),
		zap.Int("total_documents", len(documents)))
	return nil
}

// Batches splits [0, n) into half-open ranges of at most size elements
func Batches(n, size int) [][2]int {
	if n <= 0 || size <= 0 {
		return nil
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{i, end})
	}
	return out
}
