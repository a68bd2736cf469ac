package etl

import (
	"bytes"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile describes one legacy export: how its rows are laid out and,
// for SQL output, which table and typed columns they are loaded into.
type Profile struct {
	Name      string      `yaml:"name"`
	Header    *bool       `yaml:"header"`
	Delimiter string      `yaml:"delimiter"`
	Sheet     string      `yaml:"sheet"`
	Columns   Mapping     `yaml:"columns"`
	Table     string      `yaml:"table"`
	Output    []SQLColumn `yaml:"output"`
}

// LoadProfile reads a profile file. Unknown keys are rejected.
func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: read profile %s", path)
	}
	p, err := ParseProfile(b)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: profile %s", path)
	}
	return p, nil
}

// ParseProfile decodes and validates a profile document
func ParseProfile(b []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, eris.Wrap(err, "etl: decode profile")
	}

	if p.Columns == (Mapping{}) {
		return nil, eris.New("etl: profile maps no address column")
	}
	for i := range p.Output {
		c := &p.Output[i]
		if c.Name == "" {
			return nil, eris.New("etl: profile output column without a name")
		}
		if c.Coercion == "" {
			c.Coercion = CoerceString
		}
		if !c.Coercion.IsValid() {
			return nil, eris.Errorf("etl: profile column %s has unknown type %q", c.Name, c.Coercion)
		}
	}
	return &p, nil
}

// ReadOptions converts the profile layout for the readers. A profile
// without a header key reads a header row.
func (p *Profile) ReadOptions() ReadOptions {
	opts := ReadOptions{HasHeader: p.Header == nil || *p.Header, Sheet: p.Sheet}
	if r := []rune(p.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	return opts
}
