package scales

import "grade-platform/internal/models"

// Discipline groups scales by the kind of climbing they grade
type Discipline string

const (
	Sport   Discipline = "sport"
	Trad    Discipline = "trad"
	Boulder Discipline = "boulder"
)

// Definition describes one supported scale
type Definition struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Discipline Discipline `json:"discipline"`
	Delimiter  string     `json:"-"`
}

// Options returns the construction options for this scale
func (d Definition) Options() []Option {
	return []Option{WithDelimiter(d.Delimiter)}
}

// Catalog lists the supported scales in registration order.
// The IDs are the column headers of the crosswalk table.
var Catalog = []Definition{
	{ID: "UIAA", Name: "UIAA", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "FR", Name: "French sport", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "YDS", Name: "Yosemite Decimal System", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "UK_TECH", Name: "British technical", Discipline: Trad, Delimiter: DefaultDelimiter},
	{ID: "UK_ADJ", Name: "British adjectival", Discipline: Trad, Delimiter: DefaultDelimiter},
	{ID: "SAXON", Name: "Saxon", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "EWBANK", Name: "Ewbank (Australia/NZ)", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "SA", Name: "Ewbank (South Africa)", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "FIN", Name: "Finnish", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "NOR", Name: "Norwegian", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "BR", Name: "Brazilian technical", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "KURTYKA", Name: "Polish Kurtyka", Discipline: Sport, Delimiter: DefaultDelimiter},
	{ID: "V", Name: "Hueco V-scale", Discipline: Boulder, Delimiter: DefaultDelimiter},
	{ID: "FONT", Name: "Fontainebleau", Discipline: Boulder, Delimiter: DefaultDelimiter},
}

// Lookup finds a catalog definition by (case-insensitive) id
func Lookup(id string) (Definition, bool) {
	id = models.CanonicalScaleID(id)
	for _, def := range Catalog {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// CatalogIDs returns the ids of all catalog scales in registration order
func CatalogIDs() []string {
	ids := make([]string, len(Catalog))
	for i, def := range Catalog {
		ids[i] = def.ID
	}
	return ids
}

// Resolve maps table columns to definitions: catalog scales first, in catalog
// order, then unknown columns in the order given with default settings.
func Resolve(columns []string) []Definition {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[models.CanonicalScaleID(c)] = true
	}

	defs := make([]Definition, 0, len(columns))
	for _, def := range Catalog {
		if present[def.ID] {
			defs = append(defs, def)
			delete(present, def.ID)
		}
	}
	for _, c := range columns {
		id := models.CanonicalScaleID(c)
		if !present[id] {
			continue
		}
		delete(present, id)
		defs = append(defs, Definition{ID: id, Name: id, Delimiter: DefaultDelimiter})
	}
	return defs
}
