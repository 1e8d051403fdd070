package reference

// Magic item categories a magic profile may allow.
const (
	MagicWeapon        = "weapon"
	MagicArmor         = "armor"
	MagicTalisman      = "talisman"
	MagicBanner        = "banner"
	MagicArtifact      = "artifact"
	MagicEnchantedItem = "enchanted-item"
	MagicTriptych      = "triptych"
)

// MagicItemTypes is the fixed enumeration, in display order.
var MagicItemTypes = []string{
	MagicWeapon,
	MagicArmor,
	MagicTalisman,
	MagicBanner,
	MagicArtifact,
	MagicEnchantedItem,
	MagicTriptych,
}

// IsMagicItemType reports whether t belongs to MagicItemTypes.
func IsMagicItemType(t string) bool {
	for _, v := range MagicItemTypes {
		if v == t {
			return true
		}
	}
	return false
}

// MagicItemsCatalog is the catalog name holding magic item category labels.
const MagicItemsCatalog = "magic-items"

// EnumDirectory is one reference catalog.
type EnumDirectory struct {
	Name  string     `yaml:"name" json:"name"`
	Items []EnumItem `yaml:"items" json:"items"`
}

type EnumItem struct {
	Code   string `yaml:"code" json:"code"`
	NameEn string `yaml:"name_en" json:"name_en"`
	NameDe string `yaml:"name_de,omitempty" json:"name_de,omitempty"`
	NameFr string `yaml:"name_fr,omitempty" json:"name_fr,omitempty"`
	NameEs string `yaml:"name_es,omitempty" json:"name_es,omitempty"`
	Order  int    `yaml:"order,omitempty" json:"order,omitempty"`
}

// Label returns the item name for lang, falling back to English and then to
// the code.
func (it EnumItem) Label(lang string) string {
	var s string
	switch lang {
	case "de":
		s = it.NameDe
	case "fr":
		s = it.NameFr
	case "es":
		s = it.NameEs
	}
	if s == "" {
		s = it.NameEn
	}
	if s == "" {
		s = it.Code
	}
	return s
}
