package masterdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/address-resolver/internal/normalizer"
)

// JSON master files as exported from the geography API
const (
	ProvincesFile    = "provinces.json"
	DistrictsFile    = "districts.json"
	SubdistrictsFile = "sub_districts.json"
)

// flexString accepts a JSON string, number or null
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type jsonUnit struct {
	ID         flexString `json:"id"`
	NameTH     flexString `json:"name_th"`
	ProvinceID flexString `json:"province_id"`
	DistrictID flexString `json:"district_id"`
	ZipCode    flexString `json:"zip_code"`
}

// LoadJSONDir builds a Master from provinces.json, districts.json and
// sub_districts.json in dir, with the same dropping and counting rules as Load
func (l *Loader) LoadJSONDir(dir string) (*Master, LoadStats, error) {
	files, all, err := readJSONFiles(dir)
	if err != nil {
		return nil, LoadStats{}, err
	}
	var units [3][]jsonUnit
	for i, name := range jsonFiles {
		if err := json.Unmarshal(files[i], &units[i]); err != nil {
			return nil, LoadStats{}, fmt.Errorf("parse master json %s: %w", name, err)
		}
	}

	b := newBuilder(l.logger)
	for _, u := range units[0] {
		id, name := strings.TrimSpace(string(u.ID)), jsonName(u.NameTH)
		if id == "" || name == "" {
			b.stats.Malformed++
			continue
		}
		b.addProvince(id, name)
	}
	for _, u := range units[1] {
		id, name, parent := strings.TrimSpace(string(u.ID)), jsonName(u.NameTH), strings.TrimSpace(string(u.ProvinceID))
		if id == "" || name == "" || parent == "" {
			b.stats.Malformed++
			continue
		}
		b.addDistrict(id, name, parent)
	}
	for _, u := range units[2] {
		id, name, parent := strings.TrimSpace(string(u.ID)), jsonName(u.NameTH), strings.TrimSpace(string(u.DistrictID))
		if id == "" || name == "" || parent == "" {
			b.stats.Malformed++
			continue
		}
		if err := b.addSubdistrict(id, name, string(u.ZipCode), parent); err != nil {
			b.stats.Malformed++
		}
	}

	master, stats := b.build(VersionOf(all))
	if stats.Records == 0 {
		return master, stats, ErrNoMasterData
	}
	return master, stats, nil
}

var jsonFiles = [3]string{ProvincesFile, DistrictsFile, SubdistrictsFile}

// readJSONFiles returns the three files of dir and their concatenation,
// which is what the master version is computed over
func readJSONFiles(dir string) (files [3][]byte, all []byte, err error) {
	for i, name := range jsonFiles {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return files, nil, fmt.Errorf("read master json %s: %w", name, err)
		}
		files[i] = b
		all = append(all, b...)
	}
	return files, all, nil
}

func jsonName(s flexString) string {
	return normalizer.NormalizeText(string(s))
}

// LoadSource loads a master from a SQL dump file or, when path is a
// directory, from its JSON files
func (l *Loader) LoadSource(path string) (*Master, LoadStats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("master source %s: %w", path, err)
	}
	if info.IsDir() {
		return l.LoadJSONDir(path)
	}
	return l.LoadFile(path)
}

// SourceVersion returns the version a master loaded from path would
// carry, without parsing it
func SourceVersion(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("master source %s: %w", path, err)
	}
	if info.IsDir() {
		_, all, err := readJSONFiles(path)
		if err != nil {
			return "", err
		}
		return VersionOf(all), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read master dump %s: %w", path, err)
	}
	return VersionOf(b), nil
}
