package models

// MapPool - актуальный пул карт, из которого собираются скримы.
var MapPool = []string{
	"Ascent", "Bind", "Breeze", "Fracture", "Haven", "Icebox",
	"Lotus", "Pearl", "Split", "Sunset", "Abyss",
}

var mapPoolSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(MapPool))
	for _, name := range MapPool {
		m[name] = struct{}{}
	}
	return m
}()

func IsValidMap(name string) bool {
	_, ok := mapPoolSet[name]
	return ok
}

// InvalidMaps возвращает имена карт, отсутствующие в пуле.
func InvalidMaps(names []string) []string {
	var invalid []string
	for _, name := range names {
		if !IsValidMap(name) {
			invalid = append(invalid, name)
		}
	}
	return invalid
}
