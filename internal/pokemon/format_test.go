package pokemon

import (
	"testing"

	"gorm.io/datatypes"

	"pokedex/app/internal/pokeapi"
)

func TestFormatConvertsUnits(t *testing.T) {
	t.Parallel()

	record := FromUpstream(upstreamPokemon(1), fixedNow())

	view := Format(record)

	if view.Height != 70 {
		t.Fatalf("expected height 70cm, got %d", view.Height)
	}
	if view.Weight != 7 {
		t.Fatalf("expected weight 7kg, got %d", view.Weight)
	}
	if len(view.Types) != 1 || view.Types[0] != "grass" {
		t.Fatalf("unexpected types %#v", view.Types)
	}
}

func TestFormatRoundsWeightHalfUp(t *testing.T) {
	t.Parallel()

	cases := map[int]int{0: 0, 4: 0, 5: 1, 15: 2, 905: 91, 9999: 1000}
	for hectograms, kilograms := range cases {
		record := &Pokemon{ID: 1, Weight: hectograms}
		if got := Format(record).Weight; got != kilograms {
			t.Fatalf("weight %d: expected %d, got %d", hectograms, kilograms, got)
		}
	}
}

func TestFormatImagePriority(t *testing.T) {
	t.Parallel()

	artwork := pokeapi.Sprites{
		FrontDefault: "https://img/front.png",
		Other:        &pokeapi.OtherSprites{OfficialArtwork: &pokeapi.ArtworkSprite{FrontDefault: "https://img/art.png"}},
	}
	frontOnly := pokeapi.Sprites{
		FrontDefault: "https://img/front.png",
		Other:        &pokeapi.OtherSprites{OfficialArtwork: &pokeapi.ArtworkSprite{}},
	}

	cases := []struct {
		name    string
		sprites pokeapi.Sprites
		want    string
	}{
		{"artwork", artwork, "https://img/art.png"},
		{"front", frontOnly, "https://img/front.png"},
		{"fallback", pokeapi.Sprites{}, "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/132.png"},
	}

	for _, tc := range cases {
		record := &Pokemon{ID: 132, Sprites: datatypes.NewJSONType(tc.sprites)}
		if got := Format(record).Image; got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestFormatDefaultsMissingStats(t *testing.T) {
	t.Parallel()

	record := &Pokemon{
		ID: 1,
		Stats: datatypes.JSONSlice[pokeapi.Stat]{
			{BaseStat: 45, Stat: pokeapi.NamedResource{Name: "hp"}},
			{BaseStat: 65, Stat: pokeapi.NamedResource{Name: "special-attack"}},
			{BaseStat: 99, Stat: pokeapi.NamedResource{Name: "accuracy"}},
		},
	}

	stats := Format(record).Stats

	want := StatBlock{HP: 45, SpecialAttack: 65}
	if stats != want {
		t.Fatalf("expected %#v, got %#v", want, stats)
	}
	if types := Format(record).Types; types == nil || len(types) != 0 {
		t.Fatalf("expected empty non-nil types, got %#v", types)
	}
}
