package templates

// DefaultFooterNote is shown in the shared layout when a page does not supply custom text.
const DefaultFooterNote = "Pokémon data is cached from PokeAPI. Entries not yet cached are fetched the first time they are visited."

// StatView is one labelled stat bar.
type StatView struct {
	Label   string
	Value   int
	Percent int
}

// CardView is the display data for a single Pokémon card.
type CardView struct {
	ID        int
	Number    string
	Name      string
	Image     string
	Types     []string
	HeightCM  int
	WeightKG  int
	Stats     []StatView
	DetailURL string
}

// HomePageData bundles the card grid together with its filter and pagination state.
type HomePageData struct {
	Title       string
	Search      string
	Type        string
	TypeOptions []string
	Cards       []CardView
	Page        int
	PrevURL     string
	NextURL     string
	EmptyNotice string
}

// DetailPageData holds a single Pokémon card rendered on its own page.
type DetailPageData struct {
	Title string
	Card  CardView
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	Title       string
	StatusLabel string
	Message     string
}
