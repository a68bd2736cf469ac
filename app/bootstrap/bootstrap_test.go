package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/normalizer"
)

const dump = "INSERT INTO `address_provinces` (`id`, `name_th`) VALUES (41, 'อุดรธานี');\n" +
	"INSERT INTO `address_districts` (`id`, `name_th`, `name_en`, `province_id`) VALUES (4101, 'เมืองอุดรธานี', 'Mueang', 41);\n" +
	"INSERT INTO `address_sub_districts` (`id`, `zip_code`, `name_th`, `name_en`, `district_id`) VALUES\n" +
	"(410101, '41000', 'หมากแข้ง', 'Mak Khaeng', 4101),\n" +
	"(410102, '41000', 'บ้านเลื่อม', 'Ban Lueam', 4101);\n"

func writeDump(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.sql")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))
	return path
}

func TestLoadMaster(t *testing.T) {
	ctx := context.Background()
	cfg := config.MasterConfig{DumpPath: writeDump(t), Tables: masterdata.DefaultTables()}

	master, err := LoadMaster(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, master.Len())

	cfg.DumpPath = filepath.Join(t.TempDir(), "missing.sql")
	_, err = LoadMaster(ctx, cfg, nil)
	assert.Error(t, err)
}

func TestLoadMaster_Snapshot(t *testing.T) {
	ctx := context.Background()
	cfg := config.MasterConfig{
		DumpPath:     writeDump(t),
		SnapshotPath: filepath.Join(t.TempDir(), "master.db"),
		Tables:       masterdata.DefaultTables(),
	}

	first, err := LoadMaster(ctx, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(cfg.DumpPath))
	second, err := LoadMaster(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Version(), second.Version())
	assert.Equal(t, first.Records(), second.Records())
}

func TestLoadMaster_SnapshotFollowsSourceEdits(t *testing.T) {
	ctx := context.Background()
	cfg := config.MasterConfig{
		DumpPath:     writeDump(t),
		SnapshotPath: filepath.Join(t.TempDir(), "master.db"),
		Tables:       masterdata.DefaultTables(),
	}

	first, err := LoadMaster(ctx, cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())

	edited := dump + "INSERT INTO `address_sub_districts` (`id`, `zip_code`, `name_th`, `name_en`, `district_id`) VALUES " +
		"(410103, '41000', 'หนองบัว', 'Nong Bua', 4101);\n"
	require.NoError(t, os.WriteFile(cfg.DumpPath, []byte(edited), 0o644))

	second, err := LoadMaster(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Len())
	assert.Equal(t, masterdata.VersionOf([]byte(edited)), second.Version())
	assert.NotEqual(t, first.Version(), second.Version())

	store, err := masterdata.NewSQLiteStore(ctx, cfg.SnapshotPath)
	require.NoError(t, err)
	defer store.Close()
	versions, err := store.Versions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	// The old dump is served from its own snapshot again
	require.NoError(t, os.WriteFile(cfg.DumpPath, []byte(dump), 0o644))
	third, err := LoadMaster(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Version(), third.Version())
	assert.Equal(t, 2, third.Len())
}

func TestMarkers(t *testing.T) {
	m, err := Markers("")
	require.NoError(t, err)
	assert.Same(t, normalizer.DefaultMarkers(), m)

	path := filepath.Join(t.TempDir(), "markers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"subdistrict: [ตำบล]\ndistrict: [อำเภอ]\nprovince: [จังหวัด]\nprovince_aliases:\n  อด: อุดรธานี\n"), 0o644))

	m, err = Markers(path)
	require.NoError(t, err)
	canonical, ok := m.ProvinceAlias("อด")
	assert.True(t, ok)
	assert.Equal(t, "อุดรธานี", canonical)

	_, err = Markers(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestNewParser(t *testing.T) {
	p, suggester, err := NewParser(config.ResolverConfig{MemoSize: 10, MinScore: 0.5}, nil)
	require.NoError(t, err)
	require.NotNil(t, suggester)

	master := masterdata.NewMaster([]models.GeoRecord{
		{Subdistrict: "หมากแข้ง", District: "เมืองอุดรธานี", Province: "อุดรธานี", PostalCode: "41000"},
	}, "v1")
	parsed := p.Parse(models.RawGeoInput{FreeText: "ต.หมากแข้ง จ.อุดรธานี 41000"}, master)
	assert.True(t, parsed.Resolved.Matched)
}

func TestNewCache(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		wantNil bool
		wantErr bool
	}{
		{name: "default", driver: ""},
		{name: "memory", driver: CacheMemory},
		{name: "none", driver: CacheNone, wantNil: true},
		{name: "unknown", driver: "memcached", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, err := NewCache(config.CacheConfig{Driver: tt.driver, Size: 10, TTL: time.Minute}, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, cache)
				return
			}
			assert.IsType(t, &services.CacheService{}, cache)
		})
	}
}

func TestNewReviewsAndSearcherWithoutBackends(t *testing.T) {
	reviews, err := NewReviews(context.Background(), config.MongoConfig{}, nil)
	require.NoError(t, err)
	n, err := reviews.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	searcher, err := NewSearcher(config.MeilisearchConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, searcher)
}
