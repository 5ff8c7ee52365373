package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/zainab-hr/ProjetProduits/internal/adapters/http/api"
	"github.com/zainab-hr/ProjetProduits/internal/adapters/repository"
	"github.com/zainab-hr/ProjetProduits/internal/domain/batch"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

type mockDependencies struct {
	result    classifier.Result
	predicted []features.Input
	err       error

	created   []model.ProductInput
	bulk      []model.ProductInput
	listed    types.Partition
	listLimit int
	products  []model.Product
	health    model.HealthReport
	ready     bool
}

func (m *mockDependencies) Predict(_ context.Context, in features.Input) (classifier.Result, error) {
	m.predicted = append(m.predicted, in)
	return m.result, m.err
}

func (m *mockDependencies) CreateProduct(_ context.Context, in model.ProductInput) (batch.Routed, error) {
	m.created = append(m.created, in)
	if m.err != nil {
		return batch.Routed{}, m.err
	}
	p := types.PartitionFor(string(m.result.Label))
	return batch.Routed{
		Product:   model.Product{ID: 7, Name: in.Name, Category: in.Category, Price: in.PriceValue()},
		Partition: p,
		Result:    m.result,
	}, nil
}

func (m *mockDependencies) BulkImport(_ context.Context, items []model.ProductInput) model.BatchOutcome {
	m.bulk = items
	out := model.BatchOutcome{Total: len(items), Errors: []model.BatchFailure{}}
	for i, in := range items {
		if err := api.ValidateProduct(in); err != nil {
			out.Errors = append(out.Errors, model.BatchFailure{Index: i, ProductName: in.Name, Error: err.Error()})
			continue
		}
		out.Homme++
	}
	return out
}

func (m *mockDependencies) ListProducts(_ context.Context, p types.Partition, limit int) ([]model.Product, error) {
	m.listed, m.listLimit = p, limit
	return m.products, m.err
}

func (m *mockDependencies) Health(context.Context) model.HealthReport { return m.health }

func (m *mockDependencies) Ready() bool { return m.ready }

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newTestHandler(deps *mockDependencies, opts ...api.Option) http.Handler {
	opts = append([]api.Option{api.WithLogger(logger.Nop())}, opts...)
	srv := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"uptime_seconds": 1}}, opts...)
	return srv.Routes(context.Background())
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func homme() classifier.Result {
	return classifier.Result{
		Label:         types.Homme,
		Confidence:    0.842105,
		Probabilities: map[types.Label]float64{types.Homme: 0.8, types.Femme: 0.15, types.Unisexe: 0.05},
	}
}

func TestPredict(t *testing.T) {
	Convey("Given a server over a loaded classifier", t, func() {
		deps := &mockDependencies{result: homme(), ready: true}
		h := newTestHandler(deps)

		Convey("When posting a valid prediction request", func() {
			w := do(h, http.MethodPost, "/predict", `{"product_name":"Classic Men's Jacket","product_type":"Outerwear"}`)

			Convey("Then the label, confidence and probabilities are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp api.PredictResponse
				decode(w, &resp)
				So(resp.ProductName, ShouldEqual, "Classic Men's Jacket")
				So(resp.PredictedGender, ShouldEqual, types.Homme)
				So(resp.Confidence, ShouldAlmostEqual, 0.842105, 1e-9)
				So(resp.Probabilities[types.Unisexe], ShouldAlmostEqual, 0.05, 1e-9)
			})

			Convey("Then the group defaults to empty text", func() {
				So(len(deps.predicted), ShouldEqual, 1)
				So(deps.predicted[0].Text(), ShouldEqual, "Classic Men's Jacket Outerwear ")
			})

			Convey("Then a request id header is assigned", func() {
				So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
			})
		})

		Convey("When the product type is missing", func() {
			w := do(h, http.MethodPost, "/predict", `{"product_name":"Robe"}`)

			Convey("Then it is a validation error naming the JSON field", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "validation_error")
				So(body.Message, ShouldContainSubstring, "product_type is required")
				So(deps.predicted, ShouldBeEmpty)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/predict", `{not json`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "bad_request")
			})
		})
	})

	Convey("Given a classifier failing with each error kind", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{classifier.ErrModelUnavailable, http.StatusServiceUnavailable, "model_unavailable"},
			{fmt.Errorf("classify %q: %w", "x", features.ErrEncoding), http.StatusInternalServerError, "encoding_error"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}
		for _, c := range cases {
			deps := &mockDependencies{err: c.err}
			w := do(newTestHandler(deps), http.MethodPost, "/predict", `{"product_name":"a","product_type":"b"}`)
			So(w.Code, ShouldEqual, c.status)
			var body errorBody
			decode(w, &body)
			So(body.Code, ShouldEqual, c.code)
		}
	})
}

func TestPredictAndSave(t *testing.T) {
	Convey("Given a server whose classifier answers Homme", t, func() {
		deps := &mockDependencies{result: homme(), ready: true}
		h := newTestHandler(deps)

		Convey("When saving a valid product", func() {
			w := do(h, http.MethodPost, "/predict-and-save",
				`{"nom":"Veste en cuir","categorie":"Outerwear","prix":129.9,"description":"Garment Upper body"}`)

			Convey("Then it is created in the homme partition", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var resp api.PredictAndSaveResponse
				decode(w, &resp)
				So(resp.PredictedGender, ShouldEqual, types.PartitionHomme)
				So(resp.Partition, ShouldEqual, types.PartitionHomme)
				So(resp.Message, ShouldEqual, "Produit créé avec succès dans la base homme")
				So(resp.Product.ID, ShouldEqual, 7)
				So(resp.Product.Price, ShouldEqual, 129.9)
				So(*deps.created[0].Description, ShouldEqual, "Garment Upper body")
			})
		})

		Convey("When the price is negative and the name is missing", func() {
			w := do(h, http.MethodPost, "/predict-and-save", `{"categorie":"Dress","prix":-1}`)

			Convey("Then every failed rule is reported and nothing is stored", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "validation_error")
				So(body.Message, ShouldContainSubstring, "nom is required")
				So(body.Message, ShouldContainSubstring, "prix must be greater than or equal to 0")
				So(deps.created, ShouldBeEmpty)
			})
		})

		Convey("When the partition is down", func() {
			deps.err = fmt.Errorf("insert into homme: %w", repository.ErrStorageUnavailable)
			w := do(h, http.MethodPost, "/predict-and-save", `{"nom":"Veste","categorie":"Outerwear","prix":10}`)

			Convey("Then it is a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "storage_unavailable")
			})
		})
	})
}

func TestBulkImport(t *testing.T) {
	Convey("Given a server with a small batch limit", t, func() {
		deps := &mockDependencies{result: homme(), ready: true}
		h := newTestHandler(deps, api.WithMaxBatchSize(3))

		Convey("When one item of three is invalid", func() {
			w := do(h, http.MethodPost, "/products/bulk-import",
				`[{"nom":"A","categorie":"T","prix":1},{"nom":"","categorie":"T","prix":1},{"nom":"C","categorie":"T","prix":3}]`)

			Convey("Then the batch still succeeds and reports the failed index", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var out model.BatchOutcome
				decode(w, &out)
				So(out.Total, ShouldEqual, 3)
				So(out.Homme, ShouldEqual, 2)
				So(len(out.Errors), ShouldEqual, 1)
				So(out.Errors[0].Index, ShouldEqual, 1)
				So(out.Succeeded(), ShouldEqual, 2)
			})
		})

		Convey("When the batch exceeds the limit", func() {
			w := do(h, http.MethodPost, "/products/bulk-import", `[{},{},{},{}]`)

			Convey("Then it is rejected before any item runs", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.bulk, ShouldBeNil)
			})
		})

		Convey("When the body is not an array", func() {
			w := do(h, http.MethodPost, "/products/bulk-import", `{"nom":"A"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the batch is empty", func() {
			w := do(h, http.MethodPost, "/products/bulk-import", `[]`)

			Convey("Then the outcome is all zero with an empty error list", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"errors":[]`)
			})
		})
	})
}

func TestListProducts(t *testing.T) {
	Convey("Given a server with a list limit of 50", t, func() {
		deps := &mockDependencies{products: []model.Product{{ID: 2, Name: "Robe"}, {ID: 1, Name: "Jupe"}}}
		h := newTestHandler(deps, api.WithListLimit(50))

		Convey("When listing the femme partition without a limit", func() {
			w := do(h, http.MethodGet, "/products/femme", "")

			Convey("Then the default limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var out []model.Product
				decode(w, &out)
				So(len(out), ShouldEqual, 2)
				So(deps.listed, ShouldEqual, types.PartitionFemme)
				So(deps.listLimit, ShouldEqual, 50)
			})
		})

		Convey("When listing with an explicit limit", func() {
			w := do(h, http.MethodGet, "/products/homme?limit=5", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.listLimit, ShouldEqual, 5)
		})

		Convey("When the limit is out of range or not a number", func() {
			for _, q := range []string{"0", "-3", "51", "ten"} {
				w := do(h, http.MethodGet, "/products/homme?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the partition is unknown", func() {
			w := do(h, http.MethodGet, "/products/unisexe", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When the partition has no products", func() {
			deps.products = nil
			w := do(h, http.MethodGet, "/products/homme", "")
			So(w.Body.String(), ShouldStartWith, "[]")
		})
	})
}

func TestHealthAndOperations(t *testing.T) {
	Convey("Given a server with one partition down", t, func() {
		deps := &mockDependencies{
			ready: true,
			health: model.HealthReport{
				ModelLoaded:     true,
				ModelComponents: []string{"classifier", "scaler", "vectorizer"},
				DBHomme:         model.StatusOK,
				DBFemme:         model.StatusError,
			},
		}
		h := newTestHandler(deps)

		Convey("Then /health reports degraded with the probe results", func() {
			w := do(h, http.MethodGet, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var report model.HealthReport
			decode(w, &report)
			So(report.Status, ShouldEqual, model.StatusDegraded)
			So(report.DBFemme, ShouldEqual, model.StatusError)
			So(report.ModelComponents, ShouldResemble, []string{"classifier", "scaler", "vectorizer"})
		})

		Convey("Then liveness and readiness answer 200", func() {
			So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/readyz", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then readiness fails while the model is not loaded", func() {
			deps.ready = false
			So(do(h, http.MethodGet, "/readyz", "").Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Then the operational endpoints are served", func() {
			So(do(h, http.MethodGet, "/", "").Body.String(), ShouldContainSubstring, "POST /predict-and-save")
			So(do(h, http.MethodGet, "/stats", "").Body.String(), ShouldContainSubstring, "uptime_seconds")
			So(do(h, http.MethodGet, "/metrics", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/openapi.yaml", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then unknown routes answer a JSON 404", func() {
			w := do(h, http.MethodGet, "/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})

		Convey("Then a caller supplied request id is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("X-Request-ID", "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("X-Request-ID"), ShouldEqual, "abc-123")
		})
	})
}
