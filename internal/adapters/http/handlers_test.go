package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/utmgrid/internal/adapters/http"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/core/grid"
	"github.com/samirrijal/utmgrid/internal/core/usecases"
	"github.com/samirrijal/utmgrid/internal/pkg/geospatial"
	"github.com/samirrijal/utmgrid/internal/pkg/wire"
)

// ---- Mock computer ----

type mockComputer struct {
	computeFn func(viewport domain.ProjectedRect) ([]domain.BoundarySegment, error)
}

func (m *mockComputer) Compute(viewport domain.ProjectedRect) ([]domain.BoundarySegment, error) {
	if m.computeFn != nil {
		return m.computeFn(viewport)
	}
	return []domain.BoundarySegment{}, nil
}

// ---- Helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	c, err := grid.NewCatalog()
	if err != nil {
		panic(err)
	}
	d := &handler.Dependencies{
		Boundaries: usecases.NewBoundaryService(grid.NewGenerator(c, nil), nil, nil, 0, nil),
		Projection: usecases.NewProjectionService(c),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func readAPIError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(readBody(t, body), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// viewportQuery formats r exactly so the handler sees the same floats.
func viewportQuery(r domain.ProjectedRect) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	q := url.Values{}
	q.Set("min_x", f(r.MinX))
	q.Set("min_y", f(r.MinY))
	q.Set("width", f(r.Width))
	q.Set("height", f(r.Height))
	return q.Encode()
}

func projectBounds(t *testing.T, b domain.Bounds) domain.ProjectedRect {
	t.Helper()
	r, err := geospatial.ProjectBounds(b)
	if err != nil {
		t.Fatalf("project bounds: %v", err)
	}
	return r
}

// ---- Boundary handler tests ----

func TestBoundaries_Norway(t *testing.T) {
	app := setupApp(makeDeps())
	vp := projectBounds(t, domain.Bounds{West: 0, South: 58, East: 12, North: 60})

	req := httptest.NewRequest("GET", "/v1/boundaries?"+viewportQuery(vp), nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var set domain.BoundarySet
	if err := json.Unmarshal(readBody(t, resp.Body), &set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if set.Viewport != vp {
		t.Errorf("viewport not echoed: %+v", set.Viewport)
	}

	x3 := geospatial.LonToX(3)
	found := false
	for _, s := range set.Segments {
		if s.IsVertical() && s.Start.X == x3 && s.Label() == 32 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the 3°E line labelled 32 in %+v", set.Segments)
	}
}

func TestBoundaries_Protobuf(t *testing.T) {
	app := setupApp(makeDeps())
	vp := projectBounds(t, domain.Bounds{West: 1, South: 74, East: 41, North: 80})

	req := httptest.NewRequest("GET", "/v1/boundaries?"+viewportQuery(vp), nil)
	req.Header.Set("Accept", wire.ContentType)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != wire.ContentType {
		t.Fatalf("expected %s, got %s", wire.ContentType, ct)
	}
	if !strings.Contains(resp.Header.Get("Vary"), "Accept") {
		t.Errorf("expected Vary: Accept, got %q", resp.Header.Get("Vary"))
	}

	set, err := wire.UnmarshalBoundarySet(readBody(t, resp.Body))
	if err != nil {
		t.Fatalf("decode wire body: %v", err)
	}
	gaps := 0
	for _, s := range set.Segments {
		if s.IsGap() {
			gaps++
		}
	}
	if gaps != 3 {
		t.Errorf("expected 3 Svalbard gap markers, got %d", gaps)
	}
}

func TestBoundaries_MissingParam(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/boundaries?min_x=0&min_y=0&width=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	apiErr := readAPIError(t, resp.Body)
	if apiErr.Code != "bad_request" || !strings.Contains(apiErr.Message, "height") {
		t.Errorf("unexpected error body %+v", apiErr)
	}
	if apiErr.RequestID == "" {
		t.Error("expected a request ID in the error body")
	}
}

func TestBoundaries_NonFinite(t *testing.T) {
	app := setupApp(makeDeps())

	for _, q := range []string{
		"min_x=NaN&min_y=0&width=1&height=1",
		"min_x=0&min_y=0&width=Inf&height=1",
		"min_x=abc&min_y=0&width=1&height=1",
	} {
		req := httptest.NewRequest("GET", "/v1/boundaries?"+q, nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestBoundaries_DegenerateViewport(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/boundaries?min_x=100&min_y=100&width=0&height=50", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp.Body)
	if !bytes.Contains(body, []byte(`"segments":[]`)) {
		t.Errorf("expected an empty segment list, got %s", body)
	}
}

func TestBoundaries_InvariantViolation(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Boundaries = usecases.NewBoundaryService(&mockComputer{
			computeFn: func(domain.ProjectedRect) ([]domain.BoundarySegment, error) {
				return nil, fmt.Errorf("walk: %w", domain.ErrInvariantViolation)
			},
		}, nil, nil, 0, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/boundaries?min_x=0&min_y=0&width=10&height=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if apiErr := readAPIError(t, resp.Body); apiErr.Code != "internal_error" {
		t.Errorf("expected internal_error, got %+v", apiErr)
	}
}

func TestBoundaries_CacheControlHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/boundaries?min_x=0&min_y=0&width=10&height=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestBoundaries_ETagNotModified(t *testing.T) {
	app := setupApp(makeDeps())
	path := "/v1/boundaries?" + viewportQuery(projectBounds(t, domain.Bounds{West: -10, South: 40, East: 10, North: 50}))

	resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", path, nil)
	req.Header.Set("Accept", wire.ContentType)
	resp, _ = app.Test(req, -1)
	if resp.Header.Get("ETag") == etag {
		t.Error("expected distinct ETags for the JSON and wire encodings")
	}
}

func TestGeoBoundaries_Antimeridian(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/boundaries/geo?west=174&south=-10&east=-174&north=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var set domain.BoundarySet
	if err := json.Unmarshal(readBody(t, resp.Body), &set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	seam := false
	for _, s := range set.Segments {
		if s.Start.X == geospatial.WorldSize && s.NormalZone == 1 {
			seam = true
		}
	}
	if !seam {
		t.Errorf("expected the zone 1 line on the antimeridian, got %+v", set.Segments)
	}
}

func TestGeoBoundaries_SouthAboveNorth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/boundaries/geo?west=0&south=10&east=5&north=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Projection handler tests ----

func TestProject_Origin(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/project?lon=0&lat=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var p domain.ProjectedPoint
	if err := json.Unmarshal(readBody(t, resp.Body), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.X != geospatial.WorldSize/2 || p.Y != geospatial.WorldSize/2 {
		t.Errorf("expected world centre, got %+v", p)
	}
}

func TestProject_OutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/project?lon=0&lat=86", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if apiErr := readAPIError(t, resp.Body); apiErr.Code != "out_of_range" {
		t.Errorf("expected out_of_range, got %+v", apiErr)
	}
}

func TestUnproject(t *testing.T) {
	app := setupApp(makeDeps())

	half := strconv.FormatFloat(geospatial.WorldSize/2, 'f', -1, 64)
	q := "x=" + half + "&y=" + half
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/unproject?"+q, nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var g domain.GeoPoint
	if err := json.Unmarshal(readBody(t, resp.Body), &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.Lon != 0 || g.Lat > 1e-9 || g.Lat < -1e-9 {
		t.Errorf("expected origin, got %+v", g)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/unproject?x=0&y=-1", nil), -1)
	if resp.StatusCode != 422 {
		t.Errorf("expected 422 for y above the world, got %d", resp.StatusCode)
	}
}

// ---- Zone lookup tests ----

func TestZoneLookup_Bergen(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/zones/lookup?lon=5.32&lat=60.39", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var info domain.ZoneInfo
	if err := json.Unmarshal(readBody(t, resp.Body), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Zone != 32 || info.Label != "32" || info.Band != "norway" || !info.Exceptional {
		t.Errorf("expected exceptional zone 32 in norway, got %+v", info)
	}
	if info.West != 3 || info.East != 12 {
		t.Errorf("expected extent [3, 12], got [%v, %v]", info.West, info.East)
	}
}

func TestZoneLookup_OutsideEnvelope(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/zones/lookup?lon=0&lat=85", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

// ---- Exceptions tests ----

type exceptionsPage struct {
	Data       []grid.Entry       `json:"data"`
	Pagination handler.Pagination `json:"pagination"`
}

func TestExceptions_Pagination(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/exceptions?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page exceptionsPage
	if err := json.Unmarshal(readBody(t, resp.Body), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 3 || page.Pagination.Total != 8 {
		t.Errorf("expected 3 of 8 entries, got %d of %d", len(page.Data), page.Pagination.Total)
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header %q", rel, link)
		}
	}
}

func TestExceptions_PastEnd(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/exceptions?offset=50", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp.Body)
	if !bytes.Contains(body, []byte(`"data":[]`)) {
		t.Errorf("expected an empty page, got %s", body)
	}
}

func TestExceptions_Viewport(t *testing.T) {
	app := setupApp(makeDeps())
	vp := projectBounds(t, domain.Bounds{West: 30, South: 73, East: 40, North: 75})

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/exceptions?"+viewportQuery(vp), nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var page exceptionsPage
	if err := json.Unmarshal(readBody(t, resp.Body), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Pagination.Total != 3 {
		t.Errorf("expected 3 entries near 30-40°E, got %d", page.Pagination.Total)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, "min_x=") || !strings.Contains(link, "offset=0") {
		t.Errorf("expected Link header to keep the viewport filter, got %q", link)
	}
	for _, e := range page.Data {
		if e.Band != "svalbard" {
			t.Errorf("unexpected band %s", e.Band)
		}
	}
}

func TestExceptions_PartialViewport(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/exceptions?min_x=10", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- GraphQL tests ----

func graphQL(t *testing.T, app *fiber.App, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(readBody(t, resp.Body), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errs, ok := result["errors"]; ok {
		t.Fatalf("graphql errors: %v", errs)
	}
	return result["data"].(map[string]interface{})
}

func TestGraphQL_Boundaries(t *testing.T) {
	app := setupApp(makeDeps())
	vp := projectBounds(t, domain.Bounds{West: 1, South: 74, East: 41, North: 80})

	data := graphQL(t, app, `query($x: Float!, $y: Float!, $w: Float!, $h: Float!) {
		boundaries(minX: $x, minY: $y, width: $w, height: $h) {
			viewport { width }
			segments { normal_zone exception_zone label gap }
		}
	}`, map[string]interface{}{"x": vp.MinX, "y": vp.MinY, "w": vp.Width, "h": vp.Height})

	set := data["boundaries"].(map[string]interface{})
	if set["viewport"].(map[string]interface{})["width"].(float64) != vp.Width {
		t.Errorf("viewport not echoed: %v", set["viewport"])
	}
	var labels []string
	for _, raw := range set["segments"].([]interface{}) {
		s := raw.(map[string]interface{})
		if s["gap"].(bool) {
			continue
		}
		labels = append(labels, s["label"].(string))
	}
	for _, want := range []string{"33", "35", "37"} {
		if !strings.Contains(strings.Join(labels, ","), want) {
			t.Errorf("expected label %s in %v", want, labels)
		}
	}
}

func TestGraphQL_ZoneAndProject(t *testing.T) {
	app := setupApp(makeDeps())

	data := graphQL(t, app, `{
		zone(lon: 15.63, lat: 78.22) { zone label band west east }
		project(lon: 0.0, lat: 0.0) { x y }
	}`, nil)

	zone := data["zone"].(map[string]interface{})
	if zone["zone"].(float64) != 33 || zone["band"] != "svalbard" {
		t.Errorf("expected zone 33 in svalbard, got %v", zone)
	}
	if zone["west"].(float64) != 9 || zone["east"].(float64) != 21 {
		t.Errorf("expected extent [9, 21], got %v", zone)
	}
	p := data["project"].(map[string]interface{})
	if p["x"].(float64) != geospatial.WorldSize/2 {
		t.Errorf("expected world centre, got %v", p)
	}
}

func TestGraphQL_Exceptions(t *testing.T) {
	app := setupApp(makeDeps())

	data := graphQL(t, app, `{ exceptions { zone band segments { label } } }`, nil)
	if n := len(data["exceptions"].([]interface{})); n != 8 {
		t.Errorf("expected 8 exceptions, got %d", n)
	}
}

func TestGraphQL_InvalidBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
	if result["version"] != handler.Version {
		t.Errorf("expected version %s, got %v", handler.Version, result["version"])
	}
}

func TestReady_WithoutOptionalBackends(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Checks["grid"] != "ok" || result.Checks["nats"] != "not configured" || result.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks %v", result.Checks)
	}
}

func TestReady_NoGrid(t *testing.T) {
	app := setupApp(&handler.Dependencies{})

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Headers and middleware ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
	if v := resp.Header.Get("X-Content-Type-Options"); v != "nosniff" {
		t.Errorf("expected nosniff, got %q", v)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

func TestDocs_SwaggerUI(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "swagger-ui") {
		t.Error("expected the Swagger UI page")
	}
}

func TestDocs_ServesDocument(t *testing.T) {
	app := fiber.New()
	handler.SetupDocs(app, findOpenAPISpec(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs/openapi.json", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var doc struct {
		OpenAPI string         `json:"openapi"`
		Paths   map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.OpenAPI != "3.0.3" || doc.Paths["/v1/boundaries"] == nil {
		t.Errorf("unexpected document: openapi %q, %d paths", doc.OpenAPI, len(doc.Paths))
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "application/yaml" {
		t.Errorf("expected the yaml document, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestDocs_MissingDocument(t *testing.T) {
	app := fiber.New()
	handler.SetupDocs(app, "does/not/exist.yaml")

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs/openapi.json", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if e := readAPIError(t, resp.Body); e.Code != "not_found" {
		t.Errorf("expected not_found, got %+v", e)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted
// through the request logger and that quiet paths drop to debug.
func TestAccessLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(handler.WithLogger(c.UserContext(), logger))
		return c.Next()
	})
	app.Use(handler.AccessLogMiddleware("/quiet"))
	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) }
	app.Get("/test", ok)
	app.Get("/quiet", ok)

	for _, target := range []string{"/test?min_x=1", "/quiet"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one info record, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec["path"] != "/test" || rec["query"] != "min_x=1" || rec["status"] != float64(200) {
		t.Errorf("unexpected access record %v", rec)
	}
}

func TestMetrics_Exposed(t *testing.T) {
	app := setupApp(makeDeps())

	// Drive one computation so the grid counters have samples.
	if resp, _ := app.Test(httptest.NewRequest("GET", "/v1/boundaries?min_x=0&min_y=0&width=10&height=10", nil), -1); resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
	body := string(readBody(t, resp.Body))
	for _, name := range []string{"utmgrid_http_requests_total", "utmgrid_grid_computations_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in /metrics output", name)
		}
	}
}
