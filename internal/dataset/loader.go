package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset holds every unit of one army.
type Dataset struct {
	Army   string
	NameEn string
	NameDe string
	Units  map[Category][]Unit
}

// file layout on disk: one army per file, one list per category
type datasetFile struct {
	Army        string      `yaml:"army"`
	NameEn      string      `yaml:"name_en"`
	NameDe      string      `yaml:"name_de"`
	Characters  []Overrides `yaml:"characters"`
	Core        []Overrides `yaml:"core"`
	Special     []Overrides `yaml:"special"`
	Rare        []Overrides `yaml:"rare"`
	Mercenaries []Overrides `yaml:"mercenaries"`
	Allies      []Overrides `yaml:"allies"`
}

func (f *datasetFile) lists() map[Category][]Overrides {
	return map[Category][]Overrides{
		Characters:  f.Characters,
		Core:        f.Core,
		Special:     f.Special,
		Rare:        f.Rare,
		Mercenaries: f.Mercenaries,
		Allies:      f.Allies,
	}
}

type datasetOut struct {
	Army        string `yaml:"army"`
	NameEn      string `yaml:"name_en,omitempty"`
	NameDe      string `yaml:"name_de,omitempty"`
	Characters  []Unit `yaml:"characters,omitempty"`
	Core        []Unit `yaml:"core,omitempty"`
	Special     []Unit `yaml:"special,omitempty"`
	Rare        []Unit `yaml:"rare,omitempty"`
	Mercenaries []Unit `yaml:"mercenaries,omitempty"`
	Allies      []Unit `yaml:"allies,omitempty"`
}

// Parse decodes one dataset document. Units missing fields get the unit
// defaults for those fields.
func Parse(data []byte) (*Dataset, error) {
	var f datasetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	ds := &Dataset{
		Army:   strings.TrimSpace(f.Army),
		NameEn: f.NameEn,
		NameDe: f.NameDe,
		Units:  make(map[Category][]Unit, len(Categories)),
	}
	for cat, list := range f.lists() {
		if len(list) == 0 {
			continue
		}
		units := make([]Unit, 0, len(list))
		for i := range list {
			units = append(units, Merge(DefaultUnit(), &list[i]))
		}
		ds.Units[cat] = units
	}
	return ds, nil
}

// Load reads a dataset file. The army defaults to the file name.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if ds.Army == "" {
		ds.Army = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ds, nil
}

// LoadAll walks root and loads every *.yaml / *.yml dataset, keyed by army.
func LoadAll(root string) (map[string]*Dataset, error) {
	result := make(map[string]*Dataset)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}

		ds, err := Load(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if _, exists := result[ds.Army]; exists {
			return fmt.Errorf("duplicate army %q (file: %s)", ds.Army, path)
		}
		result[ds.Army] = ds
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Marshal renders ds in the on-disk layout.
func Marshal(ds *Dataset) ([]byte, error) {
	out := datasetOut{
		Army:        ds.Army,
		NameEn:      ds.NameEn,
		NameDe:      ds.NameDe,
		Characters:  ds.Units[Characters],
		Core:        ds.Units[Core],
		Special:     ds.Units[Special],
		Rare:        ds.Units[Rare],
		Mercenaries: ds.Units[Mercenaries],
		Allies:      ds.Units[Allies],
	}
	return yaml.Marshal(out)
}

// Count returns the number of units across all categories.
func (ds *Dataset) Count() int {
	n := 0
	for _, units := range ds.Units {
		n += len(units)
	}
	return n
}
