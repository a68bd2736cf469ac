package masterdata

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/normalizer"
)

// ErrNoMasterData means the source held no usable geography; the returned
// master is empty and every resolution falls back to the input values
var ErrNoMasterData = errors.New("masterdata: no records could be built")

// TableSpec names a dump table and the zero-based column positions used from it.
// ParentCol and PostalCol are -1 when the table has no such column.
type TableSpec struct {
	Name      string `yaml:"name" mapstructure:"name"`
	IDCol     int    `yaml:"id_col" mapstructure:"id_col"`
	NameCol   int    `yaml:"name_col" mapstructure:"name_col"`
	ParentCol int    `yaml:"parent_col" mapstructure:"parent_col"`
	PostalCol int    `yaml:"postal_col" mapstructure:"postal_col"`
}

// Tables configures the three geography tables of a dump
type Tables struct {
	Province    TableSpec `yaml:"province" mapstructure:"province"`
	District    TableSpec `yaml:"district" mapstructure:"district"`
	Subdistrict TableSpec `yaml:"subdistrict" mapstructure:"subdistrict"`
}

// DefaultTables matches the address_* tables of the CRM geography dump
func DefaultTables() Tables {
	return Tables{
		Province:    TableSpec{Name: "address_provinces", IDCol: 0, NameCol: 1, ParentCol: -1, PostalCol: -1},
		District:    TableSpec{Name: "address_districts", IDCol: 0, NameCol: 1, ParentCol: 3, PostalCol: -1},
		Subdistrict: TableSpec{Name: "address_sub_districts", IDCol: 0, NameCol: 2, ParentCol: 4, PostalCol: 1},
	}
}

// LoadStats counts what a load kept and dropped
type LoadStats struct {
	Statements   int `json:"statements"`
	Provinces    int `json:"provinces"`
	Districts    int `json:"districts"`
	Subdistricts int `json:"subdistricts"`
	Records      int `json:"records"`
	Malformed    int `json:"malformed"`
	Dangling     int `json:"dangling"`
	Duplicates   int `json:"duplicates"`
}

// Loader builds a Master from a SQL dump
type Loader struct {
	tables Tables
	logger *zap.Logger
}

// NewLoader creates a Loader
func NewLoader(tables Tables, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{tables: tables, logger: logger}
}

// LoadFile reads and loads a dump file. A read failure is returned as is;
// parse problems behave as in Load.
func (l *Loader) LoadFile(path string) (*Master, LoadStats, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("read master dump %s: %w", path, err)
	}
	return l.Load(string(b))
}

// Load parses the INSERT statements of the configured tables and
// denormalizes them into GeoRecords. Malformed tuples and subdistricts with
// dangling foreign keys are dropped and counted. When nothing can be built
// the result is an empty Master together with ErrNoMasterData.
func (l *Loader) Load(dump string) (*Master, LoadStats, error) {
	b := newBuilder(l.logger)
	version := VersionOf([]byte(dump))

	provTable := TableName(l.tables.Province.Name)
	distTable := TableName(l.tables.District.Name)
	subTable := TableName(l.tables.Subdistrict.Name)

	for _, raw := range SplitStatements(dump) {
		stmt, err := ParseInsert(raw)
		if errors.Is(err, ErrNotInsert) {
			continue
		}
		if err != nil {
			b.stats.Malformed++
			l.logger.Warn("Skipping unparseable INSERT", zap.Error(err))
			continue
		}

		var spec TableSpec
		var add func(TableSpec, Row) error
		switch TableName(stmt.Table) {
		case provTable:
			spec, add = l.tables.Province, b.provinceRow
		case distTable:
			spec, add = l.tables.District, b.districtRow
		case subTable:
			spec, add = l.tables.Subdistrict, b.subdistrictRow
		default:
			continue
		}

		b.stats.Statements++
		b.stats.Malformed += stmt.Malformed
		for i, row := range stmt.Rows {
			if err := add(spec, row); err != nil {
				b.stats.Malformed++
				l.logger.Debug("Skipping malformed row",
					zap.String("table", stmt.Table),
					zap.Int("row", i+1),
					zap.Error(err))
			}
		}
	}

	master, stats := b.build(version)
	l.logger.Info("Master data loaded",
		zap.Int("records", stats.Records),
		zap.Int("provinces", stats.Provinces),
		zap.Int("districts", stats.Districts),
		zap.Int("subdistricts", stats.Subdistricts),
		zap.Int("malformed", stats.Malformed),
		zap.Int("dangling", stats.Dangling),
		zap.String("version", version))

	if stats.Records == 0 {
		return master, stats, ErrNoMasterData
	}
	return master, stats, nil
}

type districtEntry struct {
	name       string
	provinceID string
}

type subdistrictEntry struct {
	id         string
	name       string
	postalCode string
	districtID string
}

// builder collects the three intermediate mappings before denormalization
type builder struct {
	provinces     map[string]string
	districts     map[string]districtEntry
	subdistricts  []subdistrictEntry
	subdistrictAt map[string]int // id -> index in subdistricts
	stats         LoadStats
	logger        *zap.Logger
}

func newBuilder(logger *zap.Logger) *builder {
	return &builder{
		provinces:     make(map[string]string),
		districts:     make(map[string]districtEntry),
		subdistrictAt: make(map[string]int),
		logger:        logger,
	}
}

func (b *builder) provinceRow(spec TableSpec, row Row) error {
	id, err := field(row, spec.IDCol, "id")
	if err != nil {
		return err
	}
	name, err := nameField(row, spec.NameCol)
	if err != nil {
		return err
	}
	b.addProvince(id, name)
	return nil
}

func (b *builder) districtRow(spec TableSpec, row Row) error {
	id, err := field(row, spec.IDCol, "id")
	if err != nil {
		return err
	}
	name, err := nameField(row, spec.NameCol)
	if err != nil {
		return err
	}
	parent, err := field(row, spec.ParentCol, "province_id")
	if err != nil {
		return err
	}
	b.addDistrict(id, name, parent)
	return nil
}

func (b *builder) subdistrictRow(spec TableSpec, row Row) error {
	id, err := field(row, spec.IDCol, "id")
	if err != nil {
		return err
	}
	name, err := nameField(row, spec.NameCol)
	if err != nil {
		return err
	}
	parent, err := field(row, spec.ParentCol, "district_id")
	if err != nil {
		return err
	}
	postal, err := field(row, spec.PostalCol, "postal_code")
	if err != nil {
		return err
	}
	return b.addSubdistrict(id, name, postal, parent)
}

func (b *builder) addProvince(id, name string) {
	if _, ok := b.provinces[id]; ok {
		b.stats.Duplicates++
	}
	b.provinces[id] = name
}

func (b *builder) addDistrict(id, name, provinceID string) {
	if _, ok := b.districts[id]; ok {
		b.stats.Duplicates++
	}
	b.districts[id] = districtEntry{name: name, provinceID: provinceID}
}

func (b *builder) addSubdistrict(id, name, postal, districtID string) error {
	code := normalizer.NormalizePostalCode(postal)
	if !normalizer.IsPostalCode(code) {
		return fmt.Errorf("subdistrict %s: invalid postal code %q", id, postal)
	}
	entry := subdistrictEntry{
		id:         id,
		name:       name,
		postalCode: code,
		districtID: districtID,
	}
	if i, ok := b.subdistrictAt[id]; ok {
		b.stats.Duplicates++
		b.subdistricts[i] = entry
		return nil
	}
	b.subdistrictAt[id] = len(b.subdistricts)
	b.subdistricts = append(b.subdistricts, entry)
	return nil
}

// build denormalizes subdistricts in insertion order; a subdistrict whose
// district or province is unknown is dropped
func (b *builder) build(version string) (*Master, LoadStats) {
	records := make([]models.GeoRecord, 0, len(b.subdistricts))
	for _, s := range b.subdistricts {
		d, ok := b.districts[s.districtID]
		if !ok {
			b.stats.Dangling++
			b.logger.Debug("Dropping subdistrict with unknown district",
				zap.String("subdistrict_id", s.id),
				zap.String("district_id", s.districtID))
			continue
		}
		p, ok := b.provinces[d.provinceID]
		if !ok {
			b.stats.Dangling++
			b.logger.Debug("Dropping subdistrict with unknown province",
				zap.String("subdistrict_id", s.id),
				zap.String("province_id", d.provinceID))
			continue
		}
		records = append(records, models.GeoRecord{
			Subdistrict: s.name,
			District:    d.name,
			Province:    p,
			PostalCode:  s.postalCode,
		})
	}

	b.stats.Provinces = len(b.provinces)
	b.stats.Districts = len(b.districts)
	b.stats.Subdistricts = len(b.subdistricts)
	b.stats.Records = len(records)
	return NewMaster(records, version), b.stats
}

func field(row Row, col int, what string) (string, error) {
	if col < 0 || col >= len(row) {
		return "", fmt.Errorf("missing %s column %d (row has %d)", what, col, len(row))
	}
	v := row[col]
	if v.Null {
		return "", fmt.Errorf("%s is NULL", what)
	}
	s := strings.TrimSpace(v.Text)
	if s == "" {
		return "", fmt.Errorf("%s is empty", what)
	}
	return s, nil
}

func nameField(row Row, col int) (string, error) {
	s, err := field(row, col, "name")
	if err != nil {
		return "", err
	}
	name := normalizer.NormalizeText(s)
	if name == "" {
		return "", fmt.Errorf("name is empty")
	}
	return name, nil
}
