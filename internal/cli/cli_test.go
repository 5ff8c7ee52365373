package cli_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/zainab-hr/ProjetProduits/internal/cli"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
)

const testBundle = "../adapters/artifact/testdata/bundle.json"

const interactionsCSV = `interaction_type,article_id,customer_id,gender,prod_name,product_type_name,product_group_name,extra
purchase,b2,c1,F,Robe,Dress,Garment Full body,x
like,b2,c2,female,,,,x
add to cart,b2,c3,male,,,,x
view,b2,c4,female,,,,x
purchase,a1,c5,homme,Veste,Jacket,Garment Upper body,x
`

func runCLI(args ...string) (string, error) {
	root := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReadInteractions(t *testing.T) {
	Convey("Given an interactions CSV with reordered and extra columns", t, func() {
		rows, err := cli.ReadInteractions(strings.NewReader(interactionsCSV))

		Convey("Then columns are matched by name", func() {
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 5)
			So(rows[0].ArticleID, ShouldEqual, "b2")
			So(rows[0].ProdName, ShouldEqual, "Robe")
			So(rows[2].InteractionType, ShouldEqual, "add to cart")
			So(rows[4].Gender, ShouldEqual, "homme")
		})
	})

	Convey("Given a CSV without an interaction_type column", t, func() {
		_, err := cli.ReadInteractions(strings.NewReader("article_id,gender\na1,F\n"))

		Convey("Then it is a missing column error", func() {
			So(errors.Is(err, cli.ErrMissingColumn), ShouldBeTrue)
		})
	})
}

func TestLabelCommand(t *testing.T) {
	Convey("Given an interactions file", t, func() {
		dir := t.TempDir()
		input := filepath.Join(dir, "interactions.csv")
		So(os.WriteFile(input, []byte(interactionsCSV), 0o600), ShouldBeNil)

		Convey("When labeling to stdout", func() {
			out, err := runCLI("label", "--input", input)

			Convey("Then one row per article is written in id order with weak labels", func() {
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out), "\n")
				So(len(lines), ShouldEqual, 3)
				So(lines[0], ShouldStartWith, "article_id,prod_name,")
				So(lines[1], ShouldStartWith, "a1,Veste,Jacket,Garment Upper body,1,0,0,")
				So(lines[1], ShouldEndWith, ",Homme")
				So(lines[2], ShouldStartWith, "b2,Robe,Dress,Garment Full body,1,1,1,3,1,2,")
				So(lines[2], ShouldEndWith, ",Femme")
			})
		})

		Convey("When labeling to a file", func() {
			output := filepath.Join(dir, "articles.csv")
			_, err := runCLI("label", "--input", input, "--output", output)
			So(err, ShouldBeNil)

			data, err := os.ReadFile(output)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "target_gender")
		})

		Convey("When the input is missing", func() {
			_, err := runCLI("label", "--input", filepath.Join(dir, "nope.csv"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPredictCommand(t *testing.T) {
	Convey("Given the test bundle", t, func() {
		Convey("When predicting a men's jacket", func() {
			out, err := runCLI("predict", "--model", testBundle, "--name", "Classic Men's Jacket", "--type", "Outerwear")

			Convey("Then the prediction is Homme routed to the homme partition", func() {
				So(err, ShouldBeNil)
				var got struct {
					PredictedGender types.Label     `json:"predicted_gender"`
					Partition       types.Partition `json:"partition"`
					Confidence      float64         `json:"confidence"`
				}
				So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
				So(got.PredictedGender, ShouldEqual, types.Homme)
				So(got.Partition, ShouldEqual, types.PartitionHomme)
				So(got.Confidence, ShouldBeGreaterThanOrEqualTo, 0.5)
			})
		})

		Convey("When the required type flag is missing", func() {
			_, err := runCLI("predict", "--model", testBundle, "--name", "Robe")
			So(err, ShouldNotBeNil)
		})

		Convey("When the model does not exist", func() {
			_, err := runCLI("predict", "--model", "missing.json", "--name", "Robe", "--type", "Dress")
			So(err, ShouldNotBeNil)
		})
	})
}

func price(v float64) *float64 { return &v }

func TestImporter(t *testing.T) {
	Convey("Given a service that fails every product without a category", t, func() {
		var requests int
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			paths = append(paths, r.URL.Path)
			var items []model.ProductInput
			if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			out := model.BatchOutcome{Total: len(items), Errors: []model.BatchFailure{}}
			for i, in := range items {
				if in.Category == "" {
					out.Errors = append(out.Errors, model.BatchFailure{Index: i, ProductName: in.Name, Error: "categorie is required"})
					continue
				}
				out.Femme++
			}
			_ = json.NewEncoder(w).Encode(out)
		}))
		Reset(srv.Close)

		items := []model.ProductInput{
			{Name: "A", Category: "Dress", Price: price(1)},
			{Name: "B", Category: "Dress", Price: price(2)},
			{Name: "C", Price: price(3)},
		}

		Convey("When importing in chunks of two", func() {
			out, err := cli.NewImporter(srv.URL+"/", time.Second, 2).Import(context.Background(), items)

			Convey("Then outcomes are merged and indices refer to the whole file", func() {
				So(err, ShouldBeNil)
				So(requests, ShouldEqual, 2)
				So(paths, ShouldResemble, []string{"/products/bulk-import", "/products/bulk-import"})
				So(out.Total, ShouldEqual, 3)
				So(out.Femme, ShouldEqual, 2)
				So(len(out.Errors), ShouldEqual, 1)
				So(out.Errors[0].Index, ShouldEqual, 2)
				So(out.Errors[0].ProductName, ShouldEqual, "C")
			})
		})

		Convey("When importing through the command", func() {
			file := filepath.Join(t.TempDir(), "products.json")
			data, _ := json.Marshal(items)
			So(os.WriteFile(file, data, 0o600), ShouldBeNil)

			out, err := runCLI("import", "--url", srv.URL, "--file", file)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"total": 3`)
		})
	})

	Convey("Given a service that rejects the batch", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"bad_request","message":"batch too large"}`))
		}))
		Reset(srv.Close)

		Convey("Then the import fails with the service's message", func() {
			_, err := cli.NewImporter(srv.URL, time.Second, 10).Import(context.Background(), []model.ProductInput{{Name: "A"}})
			So(errors.Is(err, cli.ErrImportRejected), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "batch too large")
		})
	})
}
