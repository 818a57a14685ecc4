package biodiversity

// SpeciesGroup is a broad taxonomic group used to scope protection rules.
type SpeciesGroup string

const (
	Birds      SpeciesGroup = "birds"
	Mammals    SpeciesGroup = "mammals"
	Amphibians SpeciesGroup = "amphibians"
	Reptiles   SpeciesGroup = "reptiles"
	Insects    SpeciesGroup = "insects"
)

// HabitatType classifies protected habitats.
type HabitatType string

const (
	CoastalDune HabitatType = "coastal_dune"
	Wetland     HabitatType = "wetland"
	Pond        HabitatType = "pond"
	PineBarrens HabitatType = "pine_barrens"
	Woodland    HabitatType = "woodland"
	Grassland   HabitatType = "grassland"
)

// Species is a knowledge-base entry. DisturbanceDB is the level at which
// behavioural disturbance has been documented.
type Species struct {
	ID                 string        `json:"id"`
	CommonName         string        `json:"common_name"`
	ScientificName     string        `json:"scientific_name"`
	Group              SpeciesGroup  `json:"group"`
	ConservationStatus string        `json:"conservation_status"`
	DisturbanceDB      int           `json:"disturbance_db"`
	Habitats           []HabitatType `json:"habitats"`
}

// Habitat is a protected area near the airport.
type Habitat struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          HabitatType `json:"type"`
	DisturbanceDB int         `json:"disturbance_db"`
}

var knownSpecies = []Species{
	{"piping-plover", "Piping Plover", "Charadrius melodus", Birds, "Federally Threatened", 70, []HabitatType{CoastalDune}},
	{"least-tern", "Least Tern", "Sternula antillarum", Birds, "NY Threatened", 72, []HabitatType{CoastalDune}},
	{"osprey", "Osprey", "Pandion haliaetus", Birds, "NY Special Concern", 80, []HabitatType{Wetland, Pond}},
	{"northern-harrier", "Northern Harrier", "Circus hudsonius", Birds, "NY Threatened", 75, []HabitatType{Grassland, Wetland}},
	{"eastern-whip-poor-will", "Eastern Whip-poor-will", "Antrostomus vociferus", Birds, "NY Special Concern", 68, []HabitatType{PineBarrens, Woodland}},
	{"northern-long-eared-bat", "Northern Long-eared Bat", "Myotis septentrionalis", Mammals, "Federally Endangered", 65, []HabitatType{Woodland, PineBarrens}},
	{"harbor-seal", "Harbor Seal", "Phoca vitulina", Mammals, "Protected (MMPA)", 82, []HabitatType{CoastalDune}},
	{"eastern-tiger-salamander", "Eastern Tiger Salamander", "Ambystoma tigrinum", Amphibians, "NY Endangered", 70, []HabitatType{Pond, PineBarrens}},
	{"spotted-turtle", "Spotted Turtle", "Clemmys guttata", Reptiles, "NY Special Concern", 78, []HabitatType{Wetland, Pond}},
	{"eastern-box-turtle", "Eastern Box Turtle", "Terrapene carolina", Reptiles, "NY Special Concern", 80, []HabitatType{Woodland}},
	{"frosted-elfin", "Frosted Elfin", "Callophrys irus", Insects, "NY Threatened", 85, []HabitatType{PineBarrens, Grassland}},
}

var knownHabitats = []Habitat{
	{"long-pond-greenbelt", "Long Pond Greenbelt", Wetland, 70},
	{"georgica-pond", "Georgica Pond", Pond, 72},
	{"wainscott-dunes", "Wainscott Beach Dunes", CoastalDune, 70},
	{"sagaponack-dunes", "Sagaponack Ocean Dunes", CoastalDune, 72},
	{"central-pine-barrens", "Central Pine Barrens", PineBarrens, 68},
	{"hither-woods", "Hither Woods", Woodland, 74},
	{"daniels-hole-grassland", "Daniels Hole Grassland", Grassland, 76},
}

// AllSpecies returns a copy of the species knowledge base.
func AllSpecies() []Species {
	return append([]Species(nil), knownSpecies...)
}

// AllHabitats returns a copy of the habitat knowledge base.
func AllHabitats() []Habitat {
	return append([]Habitat(nil), knownHabitats...)
}

// AffectedSpecies returns species disturbed at noiseDB. When groups is
// non-empty only species in those groups are returned. Order follows the
// knowledge base.
func AffectedSpecies(noiseDB int, groups []SpeciesGroup) []Species {
	var out []Species
	for _, s := range knownSpecies {
		if noiseDB < s.DisturbanceDB {
			continue
		}
		if len(groups) > 0 && !contains(groups, s.Group) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AffectedHabitats returns habitats disturbed at noiseDB, optionally limited
// to the given habitat types.
func AffectedHabitats(noiseDB int, types []HabitatType) []Habitat {
	var out []Habitat
	for _, h := range knownHabitats {
		if noiseDB < h.DisturbanceDB {
			continue
		}
		if len(types) > 0 && !contains(types, h.Type) {
			continue
		}
		out = append(out, h)
	}
	return out
}
