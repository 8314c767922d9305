package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pokedex/app/internal/pokeapi"
	"pokedex/app/internal/pokemon"
)

func TestListRouteReturnsFormattedPage(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{
		listResult: &pokemon.ListResult{Pokemon: []pokemon.Pokemon{samplePokemon(1, "bulbasaur", "grass", "poison")}, HasMore: true},
	}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/api/pokemon?limit=1&offset=5&search=bulb&type=grass", nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Pokemon []pokemon.Presentation `json:"pokemon"`
		HasMore bool                   `json:"hasMore"`
	}
	decodeJSON(t, rec, &body)

	if !body.HasMore || len(body.Pokemon) != 1 {
		t.Fatalf("unexpected body %#v", body)
	}
	if got := body.Pokemon[0]; got.Height != 70 || got.Weight != 7 || got.Stats.HP != 45 {
		t.Fatalf("expected formatted record, got %#v", got)
	}

	params := service.lastList()
	if params.Limit != 1 || params.Offset != 5 || params.Search != "bulb" || params.Type != "grass" {
		t.Fatalf("unexpected list params %#v", params)
	}
}

func TestListRouteAppliesDefaultsAndEmptyArray(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{listResult: &pokemon.ListResult{Pokemon: []pokemon.Pokemon{}}}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/api/pokemon", nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"pokemon":[]`) {
		t.Fatalf("expected empty JSON array, got %s", rec.Body.String())
	}

	params := service.lastList()
	if params.Limit != 20 || params.Offset != 0 {
		t.Fatalf("expected default limit 20 offset 0, got %#v", params)
	}
}

func TestListRouteRejectsOutOfRangeLimit(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{listResult: &pokemon.ListResult{}}
	srv := newTestServer(t, service, "")

	for _, target := range []string{"/api/pokemon?limit=0", "/api/pokemon?limit=101", "/api/pokemon?offset=-1"} {
		rec := serve(srv, "GET", target, nil)
		if rec.Code != stdhttp.StatusUnprocessableEntity {
			t.Fatalf("%s: expected status 422, got %d", target, rec.Code)
		}
	}
	if service.listCalls != 0 {
		t.Fatalf("expected invalid input to be rejected before the service, got %d calls", service.listCalls)
	}
}

func TestGetByIDRouteFetchesThroughService(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{fetched: samplePokemon(25, "pikachu", "electric")}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/api/pokemon/25", nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body pokemon.Presentation
	decodeJSON(t, rec, &body)
	if body.ID != 25 || body.Name != "pikachu" || len(body.Types) != 1 {
		t.Fatalf("unexpected body %#v", body)
	}

	if key := service.lastKey(); !key.IsID() || key.ID() != 25 {
		t.Fatalf("expected id key 25, got %#v", key)
	}
}

func TestGetByIDRouteRejectsZero(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubPokemonService{}, "")

	rec := serve(srv, "GET", "/api/pokemon/0", nil)

	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestGetByNameRouteMapsUpstreamErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", eris.Wrap(&pokeapi.UpstreamError{URL: "u", StatusCode: 404}, "fetching"), stdhttp.StatusNotFound},
		{"bad gateway", eris.Wrap(&pokeapi.UpstreamError{URL: "u", StatusCode: 503}, "fetching"), stdhttp.StatusBadGateway},
		{"timeout", eris.Wrap(context.DeadlineExceeded, "fetching"), stdhttp.StatusGatewayTimeout},
		{"internal", eris.New("disk on fire"), stdhttp.StatusInternalServerError},
	}

	for _, tc := range cases {
		service := &stubPokemonService{fetchErr: tc.err}
		srv := newTestServer(t, service, "")

		rec := serve(srv, "GET", "/api/pokemon/name/missingno", nil)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "disk on fire") {
			t.Fatalf("%s: internal error detail leaked: %s", tc.name, rec.Body.String())
		}
	}
}

func TestRandomRouteDefaultsCount(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{random: []pokemon.Pokemon{samplePokemon(4, "charmander", "fire")}}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/api/pokemon/random", nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body []pokemon.Presentation
	decodeJSON(t, rec, &body)
	if len(body) != 1 || body[0].Name != "charmander" {
		t.Fatalf("unexpected body %#v", body)
	}

	service.mu.Lock()
	count := service.randomCount
	service.mu.Unlock()
	if count != 6 {
		t.Fatalf("expected default count 6, got %d", count)
	}

	if rec := serve(srv, "GET", "/api/pokemon/random?count=21", nil); rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for count 21, got %d", rec.Code)
	}
}

func TestInitializeRouteRequiresAdminToken(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{bootstrap: &pokemon.BootstrapReport{Cached: 151}}
	srv := newTestServer(t, service, string(testSecret))

	rec := serve(srv, "POST", "/api/pokemon/initialize", nil)
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	header := stdhttp.Header{}
	header.Set("Authorization", "Bearer "+adminToken(t, "trainer", time.Now().Add(time.Hour)))
	rec = serve(srv, "POST", "/api/pokemon/initialize", header)
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected status 401 for non-admin token, got %d", rec.Code)
	}

	if service.bootstrapCalls != 0 {
		t.Fatalf("expected bootstrap not to run for rejected requests")
	}

	header.Set("Authorization", "Bearer "+adminToken(t, "admin", time.Now().Add(time.Hour)))
	rec = serve(srv, "POST", "/api/pokemon/initialize", header)
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Cached  int    `json:"cached"`
	}
	decodeJSON(t, rec, &body)
	if !body.Success || body.Message != "Pokemon database initialized" || body.Cached != 151 {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestInitializeRouteDisabledWithoutSecret(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{bootstrap: &pokemon.BootstrapReport{}}
	srv := newTestServer(t, service, "")

	header := stdhttp.Header{}
	header.Set("Authorization", "Bearer "+adminToken(t, "admin", time.Now().Add(time.Hour)))
	rec := serve(srv, "POST", "/api/pokemon/initialize", header)

	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestHealthCheckRouteReturnsOK(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubPokemonService{}, "")

	rec := serve(srv, "GET", "/api/health", nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `"OK"` {
		t.Fatalf("expected JSON string OK, got %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestHealthRouteReportsOK(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubPokemonService{}, "")

	rec := serve(srv, "GET", "/healthz", nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestHomeRouteRendersCards(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{
		listResult: &pokemon.ListResult{
			Pokemon: []pokemon.Pokemon{
				samplePokemon(1, "bulbasaur", "grass", "poison"),
				samplePokemon(4, "charmander", "fire"),
			},
			HasMore: true,
		},
	}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/?page=2", nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}

	doc := parseHTML(t, rec)
	cards := findAll(doc, func(n *html.Node) bool { return n.Data == "article" && hasClass(n, "card") })
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if number := textOf(findAll(cards[0], func(n *html.Node) bool { return hasClass(n, "number") })[0]); number != "#001" {
		t.Fatalf("expected padded number #001, got %q", number)
	}

	links := map[string]string{}
	for _, a := range findAll(doc, func(n *html.Node) bool { return n.Data == "a" }) {
		links[attr(a, "rel")] = attr(a, "href")
	}
	if links["prev"] != "/?page=1" || links["next"] != "/?page=3" {
		t.Fatalf("unexpected pager links %#v", links)
	}

	params := service.lastList()
	if params.Limit != homePageSize || params.Offset != homePageSize {
		t.Fatalf("expected second page query, got %#v", params)
	}
}

func TestHomeRouteFiltersTypeWithinPage(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{
		listResult: &pokemon.ListResult{Pokemon: []pokemon.Pokemon{
			samplePokemon(1, "bulbasaur", "grass", "poison"),
			samplePokemon(4, "charmander", "fire"),
		}},
	}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/?type=Fire&search=char", nil)

	doc := parseHTML(t, rec)
	cards := findAll(doc, func(n *html.Node) bool { return n.Data == "article" })
	if len(cards) != 1 || attr(cards[0], "data-id") != "4" {
		t.Fatalf("expected only the fire card, got %d cards", len(cards))
	}

	params := service.lastList()
	if params.Type != "" || params.Search != "char" {
		t.Fatalf("expected type filter to stay out of the query, got %#v", params)
	}
}

func TestHomeRouteEscapesSearch(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{listResult: &pokemon.ListResult{Pokemon: []pokemon.Pokemon{}}}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/?search=%3Cscript%3E", nil)

	if strings.Contains(rec.Body.String(), "<script>") {
		t.Fatalf("expected search term to be escaped")
	}
	if !strings.Contains(rec.Body.String(), "No Pokémon match your filters.") {
		t.Fatalf("expected empty notice, got %s", rec.Body.String())
	}
}

func TestDetailRouteRendersCardAndMapsNotFound(t *testing.T) {
	t.Parallel()

	service := &stubPokemonService{fetched: samplePokemon(25, "pikachu", "electric")}
	srv := newTestServer(t, service, "")

	rec := serve(srv, "GET", "/pokemon/Pikachu", nil)
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if key := service.lastKey(); key.Name() != "pikachu" {
		t.Fatalf("expected name key pikachu, got %#v", key)
	}

	doc := parseHTML(t, rec)
	images := findAll(doc, func(n *html.Node) bool { return n.Data == "img" })
	if len(images) != 1 || attr(images[0], "src") != "https://img.example/25.png" {
		t.Fatalf("expected card image, got %d images", len(images))
	}

	missing := newTestServer(t, &stubPokemonService{fetchErr: &pokeapi.UpstreamError{URL: "u", StatusCode: 404}}, "")
	rec = serve(missing, "GET", "/pokemon/missingno", nil)
	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}
}

func TestRateLimitedAPIRequestsGetJSONError(t *testing.T) {
	t.Parallel()

	srv := newTestServerWithLimits(t, &stubPokemonService{}, "", RateLimiterSettings{RequestsPerSecond: 0.001, Burst: 1, ClientTTL: time.Minute})

	if rec := serve(srv, "GET", "/api/health", nil); rec.Code != 200 {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec := serve(srv, "GET", "/api/health", nil)
	if rec.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header")
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "json") {
		t.Fatalf("expected JSON problem response, got %q", rec.Header().Get("Content-Type"))
	}

	rec = serve(srv, "GET", "/", nil)
	if rec.Code != stdhttp.StatusTooManyRequests || rec.Header().Get("Content-Type") != htmlContentType {
		t.Fatalf("expected HTML 429 for pages, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestNewServerValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Options{}); err == nil {
		t.Fatalf("expected error without service")
	}
	if _, err := NewServer(Options{Service: &stubPokemonService{}}); err == nil {
		t.Fatalf("expected error without database")
	}
	if _, err := NewServer(Options{Service: &stubPokemonService{}, Database: openTestDB(t)}); err == nil {
		t.Fatalf("expected error without rate limiter settings")
	}
}

// helper utilities

func newTestServer(t *testing.T, svc pokemon.Service, adminSecret string) *Server {
	t.Helper()

	return newTestServerWithLimits(t, svc, adminSecret, RateLimiterSettings{
		RequestsPerSecond: 1000,
		Burst:             1000,
		ClientTTL:         time.Minute,
	})
}

func newTestServerWithLimits(t *testing.T, svc pokemon.Service, adminSecret string, limits RateLimiterSettings) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := NewServer(Options{
		Service:     svc,
		Database:    openTestDB(t),
		Logger:      logger,
		RateLimiter: limits,
		AdminSecret: adminSecret,
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	return srv
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open returned error: %v", err)
	}
	return gormDB
}

func serve(srv *Server, method, target string, header stdhttp.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *html.Node {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}
	return doc
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			found = append(found, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func samplePokemon(id int, name string, types ...string) pokemon.Pokemon {
	slots := make([]pokeapi.TypeSlot, 0, len(types))
	for i, typeName := range types {
		slots = append(slots, pokeapi.TypeSlot{Slot: i + 1, Type: pokeapi.NamedResource{Name: typeName}})
	}

	return pokemon.Pokemon{
		ID:     id,
		Name:   name,
		Height: 7,
		Weight: 69,
		Sprites: datatypes.NewJSONType(pokeapi.Sprites{
			FrontDefault: "https://img.example/" + strconv.Itoa(id) + ".png",
		}),
		Stats: datatypes.JSONSlice[pokeapi.Stat]{{BaseStat: 45, Stat: pokeapi.NamedResource{Name: "hp"}}},
		Types: datatypes.JSONSlice[pokeapi.TypeSlot](slots),
	}
}

// stubs

type stubPokemonService struct {
	mu             sync.Mutex
	listResult     *pokemon.ListResult
	listErr        error
	listCalls      int
	listParams     pokemon.ListParams
	fetched        pokemon.Pokemon
	fetchErr       error
	fetchKey       pokemon.Key
	random         []pokemon.Pokemon
	randomCount    int
	bootstrap      *pokemon.BootstrapReport
	bootstrapCalls int
}

func (s *stubPokemonService) GetByID(_ context.Context, _ int) (*pokemon.Pokemon, error) {
	return nil, nil
}

func (s *stubPokemonService) GetByName(_ context.Context, _ string) (*pokemon.Pokemon, error) {
	return nil, nil
}

func (s *stubPokemonService) List(_ context.Context, params pokemon.ListParams) (*pokemon.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	s.listParams = params
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listResult, nil
}

func (s *stubPokemonService) Random(_ context.Context, count int) ([]pokemon.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.randomCount = count
	return s.random, nil
}

func (s *stubPokemonService) FetchAndCache(_ context.Context, key pokemon.Key) (*pokemon.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchKey = key
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	record := s.fetched
	return &record, nil
}

func (s *stubPokemonService) BatchFetchAndCache(_ context.Context, _ []int) []pokemon.Pokemon {
	return nil
}

func (s *stubPokemonService) Bootstrap(_ context.Context) (*pokemon.BootstrapReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bootstrapCalls++
	return s.bootstrap, nil
}

func (s *stubPokemonService) lastList() pokemon.ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listParams
}

func (s *stubPokemonService) lastKey() pokemon.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchKey
}

var _ pokemon.Service = (*stubPokemonService)(nil)
