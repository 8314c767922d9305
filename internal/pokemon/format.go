package pokemon

import (
	"math"
	"strconv"
)

const fallbackSpriteURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/"

// StatBlock holds the six base stats shown on a card. Missing stats read as zero.
type StatBlock struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"special-attack"`
	SpecialDefense int `json:"special-defense"`
	Speed          int `json:"speed"`
}

// Presentation is the display-ready view of a cached Pokémon.
type Presentation struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Image  string    `json:"image"`
	Types  []string  `json:"types"`
	Stats  StatBlock `json:"stats"`
	Height int       `json:"height" doc:"Height in centimetres"`
	Weight int       `json:"weight" doc:"Weight in kilograms"`
}

// Format converts a stored record into its presentation form. Height is
// stored in decimetres and weight in hectograms.
func Format(p *Pokemon) Presentation {
	sprites := p.Sprites.Data()

	image := ""
	if sprites.Other != nil && sprites.Other.OfficialArtwork != nil {
		image = sprites.Other.OfficialArtwork.FrontDefault
	}
	if image == "" {
		image = sprites.FrontDefault
	}
	if image == "" {
		image = fallbackSpriteURL + strconv.Itoa(p.ID) + ".png"
	}

	types := make([]string, 0, len(p.Types))
	for _, slot := range p.Types {
		types = append(types, slot.Type.Name)
	}

	var stats StatBlock
	for _, stat := range p.Stats {
		switch stat.Stat.Name {
		case "hp":
			stats.HP = stat.BaseStat
		case "attack":
			stats.Attack = stat.BaseStat
		case "defense":
			stats.Defense = stat.BaseStat
		case "special-attack":
			stats.SpecialAttack = stat.BaseStat
		case "special-defense":
			stats.SpecialDefense = stat.BaseStat
		case "speed":
			stats.Speed = stat.BaseStat
		}
	}

	return Presentation{
		ID:     p.ID,
		Name:   p.Name,
		Image:  image,
		Types:  types,
		Stats:  stats,
		Height: p.Height * 10,
		Weight: int(math.Round(float64(p.Weight) / 10)),
	}
}
