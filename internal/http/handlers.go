package http

import (
	"context"
	"errors"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"pokedex/app/internal/db"
	"pokedex/app/internal/pokeapi"
	"pokedex/app/internal/pokemon"
)

const (
	errorFallbackMessage = "We couldn't process your request right now."
	initializedMessage   = "Pokemon database initialized"
	apiTag               = "pokemon"
)

type listInput struct {
	Limit  int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Rows to skip"`
	Search string `query:"search" doc:"Substring matched against the name"`
	Type   string `query:"type" doc:"Accepted for compatibility; does not filter"`
}

type listOutput struct {
	Body struct {
		Pokemon []pokemon.Presentation `json:"pokemon"`
		HasMore bool                   `json:"hasMore"`
	}
}

type idInput struct {
	ID int `path:"id" minimum:"1" doc:"Upstream Pokémon id"`
}

type nameInput struct {
	Name string `path:"name" minLength:"1" doc:"Pokémon name"`
}

type pokemonOutput struct {
	Body pokemon.Presentation
}

type randomInput struct {
	Count int `query:"count" minimum:"1" maximum:"20" default:"6" doc:"Number of draws"`
}

type randomOutput struct {
	Body []pokemon.Presentation
}

type initializeInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token carrying role=admin"`
}

type initializeOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Skipped bool   `json:"skipped"`
		Cached  int    `json:"cached"`
	}
}

type healthCheckOutput struct {
	Body string
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

func (s *Server) registerListRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pokemon.list",
		Method:      stdhttp.MethodGet,
		Path:        "/api/pokemon",
		Summary:     "List cached Pokémon",
		Tags:        []string{apiTag},
	}, s.listHandler)
}

func (s *Server) registerGetByIDRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pokemon.getById",
		Method:      stdhttp.MethodGet,
		Path:        "/api/pokemon/{id}",
		Summary:     "Get a Pokémon by id, fetching it on a cache miss",
		Tags:        []string{apiTag},
	}, s.getByIDHandler)
}

func (s *Server) registerGetByNameRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pokemon.getByName",
		Method:      stdhttp.MethodGet,
		Path:        "/api/pokemon/name/{name}",
		Summary:     "Get a Pokémon by name, fetching it on a cache miss",
		Tags:        []string{apiTag},
	}, s.getByNameHandler)
}

func (s *Server) registerRandomRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pokemon.random",
		Method:      stdhttp.MethodGet,
		Path:        "/api/pokemon/random",
		Summary:     "Draw random cached Pokémon",
		Tags:        []string{apiTag},
	}, s.randomHandler)
}

func (s *Server) registerInitializeRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pokemon.initialize",
		Method:      stdhttp.MethodPost,
		Path:        "/api/pokemon/initialize",
		Summary:     "Seed an empty catalog with the first generation",
		Tags:        []string{apiTag},
		Errors:      []int{stdhttp.StatusUnauthorized, stdhttp.StatusForbidden},
	}, s.initializeHandler)
}

func (s *Server) registerHealthCheckRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      stdhttp.MethodGet,
		Path:        "/api/health",
		Summary:     "Liveness check",
	}, s.healthCheckHandler)
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.OperationID = "health"
		op.Summary = "Health check"
	})
}

func (s *Server) listHandler(ctx context.Context, input *listInput) (*listOutput, error) {
	result, err := s.pokemon.List(ctx, pokemon.ListParams{
		Limit:  input.Limit,
		Offset: input.Offset,
		Search: input.Search,
		Type:   input.Type,
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "listing pokemon", logrus.Fields{"limit": input.Limit, "offset": input.Offset})
	}

	out := &listOutput{}
	out.Body.Pokemon = formatAll(result.Pokemon)
	out.Body.HasMore = result.HasMore
	return out, nil
}

func (s *Server) getByIDHandler(ctx context.Context, input *idInput) (*pokemonOutput, error) {
	record, err := s.pokemon.FetchAndCache(ctx, pokemon.ByID(input.ID))
	if err != nil {
		return nil, s.apiError(ctx, err, "fetching pokemon by id", logrus.Fields{"pokemon_id": input.ID})
	}

	return &pokemonOutput{Body: pokemon.Format(record)}, nil
}

func (s *Server) getByNameHandler(ctx context.Context, input *nameInput) (*pokemonOutput, error) {
	record, err := s.pokemon.FetchAndCache(ctx, pokemon.ByName(input.Name))
	if err != nil {
		return nil, s.apiError(ctx, err, "fetching pokemon by name", logrus.Fields{"pokemon_name": input.Name})
	}

	return &pokemonOutput{Body: pokemon.Format(record)}, nil
}

func (s *Server) randomHandler(ctx context.Context, input *randomInput) (*randomOutput, error) {
	records, err := s.pokemon.Random(ctx, input.Count)
	if err != nil {
		return nil, s.apiError(ctx, err, "selecting random pokemon", logrus.Fields{"count": input.Count})
	}

	return &randomOutput{Body: formatAll(records)}, nil
}

func (s *Server) initializeHandler(ctx context.Context, input *initializeInput) (*initializeOutput, error) {
	if len(s.adminSecret) == 0 {
		return nil, huma.Error403Forbidden("initialization is disabled")
	}

	if err := verifyAdminToken(input.Authorization, s.adminSecret, s.now); err != nil {
		s.logWarn(ctx, err, "rejected initialize request")
		return nil, huma.Error401Unauthorized("admin token is missing or invalid")
	}

	report, err := s.pokemon.Bootstrap(ctx)
	if err != nil {
		return nil, s.apiError(ctx, err, "initializing pokemon catalog", nil)
	}

	out := &initializeOutput{}
	out.Body.Success = true
	out.Body.Message = initializedMessage
	out.Body.Skipped = report.Skipped
	out.Body.Cached = report.Cached
	return out, nil
}

func (s *Server) healthCheckHandler(context.Context, *struct{}) (*healthCheckOutput, error) {
	return &healthCheckOutput{Body: "OK"}, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func formatAll(records []pokemon.Pokemon) []pokemon.Presentation {
	formatted := make([]pokemon.Presentation, 0, len(records))
	for i := range records {
		formatted = append(formatted, pokemon.Format(&records[i]))
	}
	return formatted
}

// classifyError maps a service error onto an HTTP status and a user-facing message.
func classifyError(err error) (int, string) {
	var upstreamErr *pokeapi.UpstreamError

	switch {
	case err == nil:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	case pokeapi.IsNotFound(err):
		return stdhttp.StatusNotFound, "We couldn't find that Pokémon."
	case eris.Is(err, pokemon.ErrInvalidKey), eris.Is(err, pokemon.ErrInvalidParams):
		return stdhttp.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return stdhttp.StatusGatewayTimeout, "PokeAPI took too long to respond. Please try again."
	case errors.As(err, &upstreamErr):
		return stdhttp.StatusBadGateway, "PokeAPI is unavailable right now. Please try again later."
	default:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}
}

// apiError converts err into a Huma status error, recording anything that is not a client mistake.
func (s *Server) apiError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	status, userMessage := classifyError(err)
	if status >= stdhttp.StatusInternalServerError {
		s.recordError(ctx, err, message, fields)
	}
	return huma.NewError(status, userMessage)
}

func (s *Server) logWarn(ctx context.Context, err error, message string) {
	if s.logger == nil {
		return
	}

	entry := s.logger.WithField("component", "http").WithField("error", err.Error())
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Warn(message)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("component", "http").WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
