package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadEnumCatalog reads every YAML catalog in dir. The catalog name comes
// from the document or, when empty, from the file name. Items are sorted by
// their order field.
func LoadEnumCatalog(dir string) (map[string]EnumDirectory, error) {
	result := make(map[string]EnumDirectory)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if enumDir.Name == "" {
			enumDir.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		sort.SliceStable(enumDir.Items, func(i, j int) bool {
			return enumDir.Items[i].Order < enumDir.Items[j].Order
		})
		if enumDir.Name == MagicItemsCatalog {
			for _, it := range enumDir.Items {
				if !IsMagicItemType(it.Code) {
					return nil, fmt.Errorf("%s: unknown magic item category %q", path, it.Code)
				}
			}
		}
		result[enumDir.Name] = enumDir
	}
	return result, nil
}

// MagicItems returns the labelled magic item categories. Categories missing
// from the catalog are filled in with their code as label.
func MagicItems(catalog map[string]EnumDirectory) []EnumItem {
	known := map[string]EnumItem{}
	for _, it := range catalog[MagicItemsCatalog].Items {
		known[it.Code] = it
	}
	out := make([]EnumItem, 0, len(MagicItemTypes))
	for i, code := range MagicItemTypes {
		it, ok := known[code]
		if !ok {
			it = EnumItem{Code: code, Order: i + 1}
		}
		out = append(out, it)
	}
	return out
}
