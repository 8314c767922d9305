package pokemon

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"pokedex/app/internal/pokeapi"
)

const (
	// BootstrapSize is the number of Pokémon cached when seeding an empty catalog.
	BootstrapSize = 151
	// MaxRandomID bounds the ids Random draws from.
	MaxRandomID = 1010
	// MaxListLimit and MaxRandomCount bound the page sizes callers may request.
	MaxListLimit   = 100
	MaxRandomCount = 20

	bootstrapBatchSize = 10
	defaultWorkers     = 1
	defaultItemTimeout = 30 * time.Second
	tracerName         = "pokedex/app/internal/pokemon"
)

// ErrInvalidParams indicates list or random parameters outside their allowed range.
var ErrInvalidParams = eris.New("invalid pokemon query parameters")

// Service defines catalog operations built on top of the repository and the upstream gateway.
type Service interface {
	GetByID(ctx context.Context, id int) (*Pokemon, error)
	GetByName(ctx context.Context, name string) (*Pokemon, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Random(ctx context.Context, count int) ([]Pokemon, error)
	FetchAndCache(ctx context.Context, key Key) (*Pokemon, error)
	BatchFetchAndCache(ctx context.Context, ids []int) []Pokemon
	Bootstrap(ctx context.Context) (*BootstrapReport, error)
}

// ListParams selects a page of the catalog. Type is accepted but does not filter.
type ListParams struct {
	Limit  int
	Offset int
	Search string
	Type   string
}

// ListResult is one page of the catalog. HasMore is true when the page came back full.
type ListResult struct {
	Pokemon []Pokemon
	HasMore bool
}

// BootstrapReport summarises a Bootstrap run.
type BootstrapReport struct {
	Skipped bool
	Cached  int
}

// Settings tunes batch behaviour and makes randomness and time injectable.
type Settings struct {
	BatchWorkers int
	ItemTimeout  time.Duration
	// Rand returns a uniform integer in [0, n).
	Rand func(n int) int
	Now  func() time.Time
}

type service struct {
	repo        Repository
	upstream    pokeapi.Fetcher
	logger      *logrus.Logger
	sentryHub   *sentry.Hub
	flight      singleflight.Group
	workers     int
	itemTimeout time.Duration
	randIntN    func(n int) int
	now         func() time.Time
	tracer      trace.Tracer
}

var _ Service = (*service)(nil)

// NewService wires the catalog service with its dependencies.
func NewService(repo Repository, upstream pokeapi.Fetcher, logger *logrus.Logger, hub *sentry.Hub, settings Settings) (Service, error) {
	if repo == nil {
		return nil, eris.New("pokemon repository is required")
	}
	if upstream == nil {
		return nil, eris.New("upstream fetcher is required")
	}

	workers := settings.BatchWorkers
	if workers <= 0 {
		workers = defaultWorkers
	}

	itemTimeout := settings.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = defaultItemTimeout
	}

	randIntN := settings.Rand
	if randIntN == nil {
		randIntN = rand.IntN
	}

	now := settings.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:        repo,
		upstream:    upstream,
		logger:      logger,
		sentryHub:   hub,
		workers:     workers,
		itemTimeout: itemTimeout,
		randIntN:    randIntN,
		now:         now,
		tracer:      otel.Tracer(tracerName),
	}, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*Pokemon, error) {
	if err := ByID(id).Validate(); err != nil {
		return nil, err
	}

	pokemon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.recordError(logrus.Fields{"pokemon_id": id}, err, "retrieving pokemon by id")
		return nil, eris.Wrapf(err, "retrieving pokemon: %d", id)
	}

	return pokemon, nil
}

func (s *service) GetByName(ctx context.Context, name string) (*Pokemon, error) {
	key := ByName(name)
	if key.Name() == "" {
		return nil, eris.Wrap(ErrInvalidKey, "name is required")
	}

	pokemon, err := s.repo.GetByName(ctx, key.Name())
	if err != nil {
		s.recordError(logrus.Fields{"pokemon_name": key.Name()}, err, "retrieving pokemon by name")
		return nil, eris.Wrapf(err, "retrieving pokemon: %s", key.Name())
	}

	return pokemon, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit < 1 || params.Limit > MaxListLimit {
		return nil, eris.Wrapf(ErrInvalidParams, "limit must be between 1 and %d, got %d", MaxListLimit, params.Limit)
	}
	if params.Offset < 0 {
		return nil, eris.Wrapf(ErrInvalidParams, "offset must not be negative, got %d", params.Offset)
	}

	if typeName := strings.TrimSpace(params.Type); typeName != "" {
		s.logDebug(logrus.Fields{"type": typeName}, "type filter requested but not applied")
	}

	pokemon, err := s.repo.List(ctx, params.Limit, params.Offset, params.Search)
	if err != nil {
		s.recordError(logrus.Fields{"limit": params.Limit, "offset": params.Offset}, err, "listing pokemon")
		return nil, eris.Wrap(err, "listing pokemon")
	}

	return &ListResult{Pokemon: pokemon, HasMore: len(pokemon) == params.Limit}, nil
}

// Random draws count ids independently from [1, MaxRandomID] and returns whichever
// of them are cached. Duplicate draws collapse, so fewer than count rows is normal.
func (s *service) Random(ctx context.Context, count int) ([]Pokemon, error) {
	if count < 1 || count > MaxRandomCount {
		return nil, eris.Wrapf(ErrInvalidParams, "count must be between 1 and %d, got %d", MaxRandomCount, count)
	}

	ids := make([]int, 0, count)
	for range count {
		ids = append(ids, s.randIntN(MaxRandomID)+1)
	}

	pokemon, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		s.recordError(logrus.Fields{"ids": ids}, err, "selecting random pokemon")
		return nil, eris.Wrap(err, "selecting random pokemon")
	}

	return pokemon, nil
}

// FetchAndCache returns the stored record for key, fetching and persisting it on a miss.
// Concurrent calls for the same key share one lookup. The shared work is detached
// from the caller's cancellation and bounded by the item timeout instead.
func (s *service) FetchAndCache(ctx context.Context, key Key) (*Pokemon, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	results := s.flight.DoChan(key.flightKey(), func() (any, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.itemTimeout)
		defer cancel()
		return s.loadOrFetch(workCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "fetching pokemon %s", key)
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		pokemon := *result.Val.(*Pokemon)
		return &pokemon, nil
	}
}

func (s *service) loadOrFetch(ctx context.Context, key Key) (*Pokemon, error) {
	ctx, span := s.tracer.Start(ctx, "pokemon.fetch_and_cache", trace.WithAttributes(attribute.String("pokemon.key", key.String())))
	defer span.End()

	fields := logrus.Fields{"pokemon_key": key.String()}

	existing, err := s.lookup(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		s.recordError(fields, err, "looking up cached pokemon")
		return nil, eris.Wrapf(err, "looking up pokemon %s", key)
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("pokemon.cache_hit", true))
		return existing, nil
	}
	span.SetAttributes(attribute.Bool("pokemon.cache_hit", false))

	payload, err := s.upstream.FetchPokemon(ctx, key.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream fetch failed")
		if !pokeapi.IsNotFound(err) {
			s.recordError(fields, err, "fetching pokemon from upstream")
		}
		return nil, eris.Wrapf(err, "fetching pokemon %s from upstream", key)
	}

	record := FromUpstream(payload, s.now())
	if err := s.repo.Create(ctx, record); err != nil {
		if !eris.Is(err, ErrAlreadyExists) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist failed")
			s.recordError(fields, err, "persisting fetched pokemon")
			return nil, eris.Wrapf(err, "persisting pokemon %s", key)
		}

		// Another writer stored the same upstream id first; its row is authoritative.
		stored, getErr := s.repo.GetByID(ctx, record.ID)
		if getErr != nil {
			s.recordError(fields, getErr, "re-reading pokemon after insert conflict")
			return nil, eris.Wrapf(getErr, "re-reading pokemon %d", record.ID)
		}
		if stored == nil {
			err := eris.Errorf("pokemon %d reported as existing but not found", record.ID)
			s.recordError(fields, err, "re-reading pokemon after insert conflict")
			return nil, err
		}
		return stored, nil
	}

	s.logDebug(logrus.Fields{"pokemon_id": record.ID, "pokemon_name": record.Name}, "cached pokemon from upstream")
	return record, nil
}

func (s *service) lookup(ctx context.Context, key Key) (*Pokemon, error) {
	if key.IsID() {
		return s.repo.GetByID(ctx, key.ID())
	}
	return s.repo.GetByName(ctx, key.Name())
}

// BatchFetchAndCache caches each id, logging and skipping failures. Results follow input order.
func (s *service) BatchFetchAndCache(ctx context.Context, ids []int) []Pokemon {
	fetched := make([]*Pokemon, len(ids))

	var group errgroup.Group
	group.SetLimit(s.workers)

	for i, id := range ids {
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			pokemon, err := s.FetchAndCache(ctx, ByID(id))
			if err != nil {
				s.logWarn(logrus.Fields{"pokemon_id": id, "error": err.Error()}, "failed to cache pokemon")
				return nil
			}
			fetched[i] = pokemon
			return nil
		})
	}
	_ = group.Wait()

	results := make([]Pokemon, 0, len(ids))
	for _, pokemon := range fetched {
		if pokemon != nil {
			results = append(results, *pokemon)
		}
	}

	return results
}

// Bootstrap seeds an empty catalog with the first BootstrapSize Pokémon. A catalog
// holding any row is left untouched.
func (s *service) Bootstrap(ctx context.Context) (*BootstrapReport, error) {
	ctx, span := s.tracer.Start(ctx, "pokemon.bootstrap")
	defer span.End()

	populated, err := s.repo.HasAny(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		s.recordError(nil, err, "checking whether catalog is populated")
		return nil, eris.Wrap(err, "checking whether catalog is populated")
	}
	if populated {
		s.logInfo(nil, "pokemon catalog already populated, skipping bootstrap")
		return &BootstrapReport{Skipped: true}, nil
	}

	s.logInfo(logrus.Fields{"count": BootstrapSize}, "initializing pokemon catalog")

	report := &BootstrapReport{}
	for start := 1; start <= BootstrapSize; start += bootstrapBatchSize {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "bootstrapping pokemon catalog")
		}

		end := min(start+bootstrapBatchSize-1, BootstrapSize)
		ids := make([]int, 0, end-start+1)
		for id := start; id <= end; id++ {
			ids = append(ids, id)
		}

		cached := s.BatchFetchAndCache(ctx, ids)
		report.Cached += len(cached)

		s.logInfo(logrus.Fields{"from": start, "to": end, "cached": len(cached)}, "cached pokemon batch")
	}

	span.SetAttributes(attribute.Int("pokemon.cached", report.Cached))
	s.logInfo(logrus.Fields{"cached": report.Cached}, "pokemon catalog initialized")

	return report, nil
}

func (s *service) logDebug(fields logrus.Fields, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithField("component", "pokemon.service").WithFields(fields).Debug(message)
}

func (s *service) logInfo(fields logrus.Fields, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithField("component", "pokemon.service").WithFields(fields).Info(message)
}

func (s *service) logWarn(fields logrus.Fields, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithField("component", "pokemon.service").WithFields(fields).Warn(message)
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("component", "pokemon.service").WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
