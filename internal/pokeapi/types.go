package pokeapi

// NamedResource is the {name, url} reference PokeAPI uses for linked resources.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Sprites holds the image URLs for a Pokémon. Missing images decode as empty strings.
type Sprites struct {
	FrontDefault     string        `json:"front_default"`
	FrontShiny       string        `json:"front_shiny"`
	BackDefault      string        `json:"back_default"`
	BackShiny        string        `json:"back_shiny"`
	FrontFemale      string        `json:"front_female,omitempty"`
	FrontShinyFemale string        `json:"front_shiny_female,omitempty"`
	Other            *OtherSprites `json:"other,omitempty"`
}

// OtherSprites groups the alternative artwork sets.
type OtherSprites struct {
	OfficialArtwork *ArtworkSprite `json:"official-artwork,omitempty"`
	DreamWorld      *ArtworkSprite `json:"dream_world,omitempty"`
}

// ArtworkSprite is a single artwork set.
type ArtworkSprite struct {
	FrontDefault string `json:"front_default,omitempty"`
}

// Stat is one base stat entry of a Pokémon.
type Stat struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// TypeSlot assigns a type to one of the Pokémon's (at most two) slots.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// Ability is an ability a Pokémon can have.
type Ability struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// Move is a learnable move together with how each version group teaches it.
type Move struct {
	Move                NamedResource        `json:"move"`
	VersionGroupDetails []VersionGroupDetail `json:"version_group_details"`
}

// VersionGroupDetail describes how a move is learned in one version group.
type VersionGroupDetail struct {
	LevelLearnedAt  int           `json:"level_learned_at"`
	MoveLearnMethod NamedResource `json:"move_learn_method"`
	VersionGroup    NamedResource `json:"version_group"`
}

// Pokemon is the /pokemon/{idOrName} payload.
type Pokemon struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Height         int           `json:"height"`
	Weight         int           `json:"weight"`
	BaseExperience *int          `json:"base_experience"`
	Order          int           `json:"order"`
	IsDefault      bool          `json:"is_default"`
	Sprites        Sprites       `json:"sprites"`
	Stats          []Stat        `json:"stats"`
	Types          []TypeSlot    `json:"types"`
	Abilities      []Ability     `json:"abilities"`
	Moves          []Move        `json:"moves"`
	Species        NamedResource `json:"species"`
}

// PokemonList is the paginated /pokemon?limit&offset payload.
type PokemonList struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// Type is the /type/{idOrName} payload, reduced to the fields the catalog knows about.
type Type struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Pokemon []TypePokemon   `json:"pokemon"`
	Moves   []NamedResource `json:"moves"`
}

// TypePokemon links a Pokémon to a type slot.
type TypePokemon struct {
	Slot    int           `json:"slot"`
	Pokemon NamedResource `json:"pokemon"`
}
