package http

import (
	"context"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"pokedex/app/internal/http/templates"
	"pokedex/app/internal/pokemon"
)

const homePageSize = 12

type homeInput struct {
	Search string `query:"search"`
	Type   string `query:"type"`
	Page   int    `query:"page"`
}

type detailInput struct {
	Name string `path:"name"`
}

func (s *Server) registerHomeRoute() {
	huma.Get(s.api, "/", s.homeHandler, htmlOperation("Pokédex home", stdhttp.StatusInternalServerError))
}

func (s *Server) registerDetailRoute() {
	huma.Get(s.api, "/pokemon/{name}", s.detailHandler, htmlOperation(
		"Pokémon detail page",
		stdhttp.StatusBadRequest,
		stdhttp.StatusNotFound,
		stdhttp.StatusBadGateway,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) homeHandler(ctx context.Context, input *homeInput) (*htmlResponse, error) {
	page := max(input.Page, 1)
	search := strings.TrimSpace(input.Search)
	typeFilter := strings.ToLower(strings.TrimSpace(input.Type))

	result, err := s.pokemon.List(ctx, pokemon.ListParams{
		Limit:  homePageSize,
		Offset: (page - 1) * homePageSize,
		Search: search,
	})
	if err != nil {
		status, message := classifyError(err)
		s.recordError(ctx, err, "listing pokemon for home page", logrus.Fields{"page": page})
		return s.renderErrorResponse(ctx, status, message), nil
	}

	cards := make([]templates.CardView, 0, len(result.Pokemon))
	for i := range result.Pokemon {
		view := pokemon.Format(&result.Pokemon[i])
		if typeFilter != "" && !hasType(view, typeFilter) {
			continue
		}
		cards = append(cards, cardView(view))
	}

	data := templates.HomePageData{
		Title:       "Pokédex",
		Search:      search,
		Type:        typeFilter,
		TypeOptions: templates.TypeNames,
		Cards:       cards,
		Page:        page,
		EmptyNotice: "No Pokémon cached yet. Initialize the catalog to get started.",
	}
	if search != "" || typeFilter != "" {
		data.EmptyNotice = "No Pokémon match your filters."
	}
	if page > 1 {
		data.PrevURL = homeURL(search, typeFilter, page-1)
	}
	if result.HasMore {
		data.NextURL = homeURL(search, typeFilter, page+1)
	}

	body, err := renderComponent(ctx, templates.HomePage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering home page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render the Pokédex."), nil
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) detailHandler(ctx context.Context, input *detailInput) (*htmlResponse, error) {
	key := pokemon.ParseKey(input.Name)

	record, err := s.pokemon.FetchAndCache(ctx, key)
	if err != nil {
		status, message := classifyError(err)
		if status >= stdhttp.StatusInternalServerError {
			s.recordError(ctx, err, "loading pokemon detail page", logrus.Fields{"pokemon_key": key.String()})
		}
		return s.renderErrorResponse(ctx, status, message), nil
	}

	view := pokemon.Format(record)
	body, err := renderComponent(ctx, templates.DetailPage(templates.DetailPageData{
		Title: view.Name + " • Pokédex",
		Card:  cardView(view),
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering detail page", logrus.Fields{"pokemon_id": view.ID})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render this Pokémon."), nil
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func cardView(view pokemon.Presentation) templates.CardView {
	stats := []struct {
		label string
		value int
	}{
		{"hp", view.Stats.HP},
		{"attack", view.Stats.Attack},
		{"defense", view.Stats.Defense},
		{"special-attack", view.Stats.SpecialAttack},
		{"special-defense", view.Stats.SpecialDefense},
		{"speed", view.Stats.Speed},
	}

	statViews := make([]templates.StatView, 0, len(stats))
	for _, stat := range stats {
		statViews = append(statViews, templates.StatView{
			Label:   stat.label,
			Value:   stat.value,
			Percent: templates.StatPercent(stat.value),
		})
	}

	return templates.CardView{
		ID:        view.ID,
		Number:    templates.PaddedNumber(view.ID),
		Name:      view.Name,
		Image:     view.Image,
		Types:     view.Types,
		HeightCM:  view.Height,
		WeightKG:  view.Weight,
		Stats:     statViews,
		DetailURL: "/pokemon/" + url.PathEscape(view.Name),
	}
}

func hasType(view pokemon.Presentation, typeName string) bool {
	for _, candidate := range view.Types {
		if strings.EqualFold(candidate, typeName) {
			return true
		}
	}
	return false
}

func homeURL(search, typeName string, page int) string {
	values := url.Values{}
	if search != "" {
		values.Set("search", search)
	}
	if typeName != "" {
		values.Set("type", typeName)
	}
	values.Set("page", strconv.Itoa(page))
	return "/?" + values.Encode()
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}
