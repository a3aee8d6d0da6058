package village

import "math/rand"

// GenerateNames produces procedural settlement names by combining syllables.
// Names are unique within one call.
func GenerateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}

	return names
}
