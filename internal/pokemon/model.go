package pokemon

import (
	"time"

	"gorm.io/datatypes"

	"pokedex/app/internal/pokeapi"
)

// MaxStoredMoves caps the persisted move list; the upstream list can run into the hundreds.
const MaxStoredMoves = 20

// Pokemon is a catalog entry cached from the upstream service.
// The ID is the upstream identifier and is never generated locally.
type Pokemon struct {
	ID             int                                   `gorm:"primaryKey;autoIncrement:false"`
	Name           string                                `gorm:"size:100;not null;index:name_idx"`
	Height         int                                   `gorm:"not null"`
	Weight         int                                   `gorm:"not null"`
	BaseExperience *int                                  `gorm:"column:base_experience"`
	Order          *int                                  `gorm:"column:order;index:order_idx"`
	IsDefault      int                                   `gorm:"column:is_default;not null"`
	Sprites        datatypes.JSONType[pokeapi.Sprites]   `gorm:"column:sprites"`
	Stats          datatypes.JSONSlice[pokeapi.Stat]     `gorm:"column:stats"`
	Abilities      datatypes.JSONSlice[pokeapi.Ability]  `gorm:"column:abilities"`
	Types          datatypes.JSONSlice[pokeapi.TypeSlot] `gorm:"column:types"`
	Moves          datatypes.JSONSlice[pokeapi.Move]     `gorm:"column:moves"`
	SpeciesURL     string                                `gorm:"column:species_url;type:text"`
	CreatedAt      time.Time                             `gorm:"not null"`
	UpdatedAt      time.Time                             `gorm:"not null"`
}

// TableName defines the table name for the Pokemon model.
func (Pokemon) TableName() string {
	return "pokemon"
}

// PokemonType is reserved for a future type index. Nothing reads or writes it yet.
type PokemonType struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:50;uniqueIndex;not null"`
	URL       string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName defines the table name for the PokemonType model.
func (PokemonType) TableName() string {
	return "pokemon_type"
}

// FromUpstream converts an upstream payload into the stored shape.
func FromUpstream(src *pokeapi.Pokemon, now time.Time) *Pokemon {
	isDefault := 0
	if src.IsDefault {
		isDefault = 1
	}

	moves := src.Moves
	if len(moves) > MaxStoredMoves {
		moves = moves[:MaxStoredMoves]
	}

	order := src.Order

	return &Pokemon{
		ID:             src.ID,
		Name:           src.Name,
		Height:         src.Height,
		Weight:         src.Weight,
		BaseExperience: src.BaseExperience,
		Order:          &order,
		IsDefault:      isDefault,
		Sprites:        datatypes.NewJSONType(src.Sprites),
		Stats:          datatypes.JSONSlice[pokeapi.Stat](src.Stats),
		Abilities:      datatypes.JSONSlice[pokeapi.Ability](src.Abilities),
		Types:          datatypes.JSONSlice[pokeapi.TypeSlot](src.Types),
		Moves:          datatypes.JSONSlice[pokeapi.Move](append([]pokeapi.Move(nil), moves...)),
		SpeciesURL:     src.Species.URL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
