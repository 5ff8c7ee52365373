package batch_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/zainab-hr/ProjetProduits/internal/domain/batch"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

var errStorage = errors.New("storage unavailable")

// keywordClassifier labels anything mentioning "robe" as Femme and panics on "boom".
type keywordClassifier struct {
	seen []features.Input
}

func (k *keywordClassifier) Classify(_ context.Context, in features.Input) (classifier.Result, error) {
	k.seen = append(k.seen, in)
	name := strings.ToLower(in.Name)
	switch {
	case strings.Contains(name, "boom"):
		panic("model exploded")
	case strings.Contains(name, "robe"):
		return classifier.Result{Label: types.Femme, Confidence: 0.9}, nil
	default:
		return classifier.Result{Label: types.Homme, Confidence: 0.7}, nil
	}
}

type recordingDispatcher struct {
	failFor map[string]bool
	stored  map[types.Partition][]string
}

func newRecordingDispatcher(failFor ...string) *recordingDispatcher {
	d := &recordingDispatcher{failFor: map[string]bool{}, stored: map[types.Partition][]string{}}
	for _, n := range failFor {
		d.failFor[n] = true
	}
	return d
}

func (d *recordingDispatcher) Dispatch(_ context.Context, label types.Label, in model.ProductInput) (model.Product, types.Partition, error) {
	partition := types.PartitionFor(label.String())
	if d.failFor[in.Name] {
		return model.Product{}, partition, errStorage
	}
	d.stored[partition] = append(d.stored[partition], in.Name)
	return model.Product{ID: int64(len(d.stored[partition])), Name: in.Name}, partition, nil
}

func item(name string) model.ProductInput {
	p := 10.0
	return model.ProductInput{Name: name, Category: "Cat", Price: &p}
}

func TestCoordinatorRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a coordinator over a keyword classifier", t, func() {
		cls := &keywordClassifier{}

		Convey("When the second of three items fails in storage", func() {
			disp := newRecordingDispatcher("Robe B")
			co := batch.NewCoordinator(cls, disp, batch.WithLogger(logger.Nop()))
			out := co.Run(ctx, []model.ProductInput{item("Veste A"), item("Robe B"), item("Robe C")})

			Convey("Then the other items are still stored and the failure is reported by index", func() {
				So(out.Total, ShouldEqual, 3)
				So(out.Homme, ShouldEqual, 1)
				So(out.Femme, ShouldEqual, 1)
				So(out.Errors, ShouldHaveLength, 1)
				So(out.Errors[0].Index, ShouldEqual, 1)
				So(out.Errors[0].ProductName, ShouldEqual, "Robe B")
				So(out.Errors[0].Error, ShouldContainSubstring, "storage unavailable")
				So(disp.stored[types.PartitionFemme], ShouldResemble, []string{"Robe C"})
			})
		})

		Convey("When an item panics inside the classifier", func() {
			co := batch.NewCoordinator(cls, newRecordingDispatcher(), batch.WithLogger(logger.Nop()))
			out := co.Run(ctx, []model.ProductInput{item("boom"), item("Veste")})

			Convey("Then the panic becomes an item failure", func() {
				So(out.Errors, ShouldHaveLength, 1)
				So(out.Errors[0].Index, ShouldEqual, 0)
				So(out.Errors[0].Error, ShouldContainSubstring, "model exploded")
				So(out.Homme, ShouldEqual, 1)
			})
		})

		Convey("When validation rejects an item", func() {
			validate := func(in model.ProductInput) error {
				if in.Price == nil {
					return errors.New("prix is required")
				}
				return nil
			}
			co := batch.NewCoordinator(cls, newRecordingDispatcher(), batch.WithLogger(logger.Nop()), batch.WithValidator(validate))
			out := co.Run(ctx, []model.ProductInput{{Name: "No price", Category: "x"}, item("Robe")})

			Convey("Then it is reported without being classified", func() {
				So(out.Errors, ShouldHaveLength, 1)
				So(out.Errors[0].ProductName, ShouldEqual, "No price")
				So(out.Femme, ShouldEqual, 1)
				So(cls.seen, ShouldHaveLength, 1)
			})
		})

		Convey("When the batch is empty", func() {
			co := batch.NewCoordinator(cls, newRecordingDispatcher(), batch.WithLogger(logger.Nop()))
			out := co.Run(ctx, nil)

			Convey("Then the outcome is all zeros with an empty error list", func() {
				So(out.Total, ShouldEqual, 0)
				So(out.Homme+out.Femme, ShouldEqual, 0)
				So(out.Errors, ShouldNotBeNil)
				So(out.Errors, ShouldBeEmpty)
			})
		})

		Convey("When items carry descriptions", func() {
			co := batch.NewCoordinator(cls, newRecordingDispatcher(), batch.WithLogger(logger.Nop()))
			desc := "Garment Upper body"
			in := item("Veste")
			in.Description = &desc
			co.Run(ctx, []model.ProductInput{in, item("Pull")})

			Convey("Then the description is the group text and nothing leaks between items", func() {
				So(cls.seen[0].Group, ShouldEqual, "Garment Upper body")
				So(cls.seen[1].Group, ShouldEqual, "")
				So(cls.seen[1].Counters(), ShouldResemble, []float64{0, 0, 0})
			})
		})
	})
}

func TestCoordinatorInvariant(t *testing.T) {
	Convey("Given random batches with random storage failures", t, func() {
		rng := rand.New(rand.NewSource(11)) //nolint:gosec // deterministic test data

		Convey("Then total always equals homme + femme + failures", func() {
			for round := range 50 {
				n := rng.Intn(20)
				items := make([]model.ProductInput, n)
				var failing []string
				for i := range items {
					name := fmt.Sprintf("Veste %d-%d", round, i)
					if rng.Intn(2) == 0 {
						name = fmt.Sprintf("Robe %d-%d", round, i)
					}
					if rng.Intn(4) == 0 {
						failing = append(failing, name)
					}
					items[i] = item(name)
				}
				co := batch.NewCoordinator(&keywordClassifier{}, newRecordingDispatcher(failing...), batch.WithLogger(logger.Nop()))
				out := co.Run(context.Background(), items)

				So(out.Total, ShouldEqual, n)
				So(out.Homme+out.Femme+len(out.Errors), ShouldEqual, out.Total)
				So(len(out.Errors), ShouldEqual, len(failing))
			}
		})
	})
}

func TestCoordinatorRoute(t *testing.T) {
	Convey("Given a single product", t, func() {
		co := batch.NewCoordinator(&keywordClassifier{}, newRecordingDispatcher(), batch.WithLogger(logger.Nop()))

		Convey("Then Route returns the stored record, partition and classification", func() {
			r, err := co.Route(context.Background(), item("Robe longue"))
			So(err, ShouldBeNil)
			So(r.Partition, ShouldEqual, types.PartitionFemme)
			So(r.Result.Label, ShouldEqual, types.Femme)
			So(r.Product.ID, ShouldEqual, 1)
		})

		Convey("Then a storage failure keeps its kind", func() {
			co := batch.NewCoordinator(&keywordClassifier{}, newRecordingDispatcher("Robe"), batch.WithLogger(logger.Nop()))
			r, err := co.Route(context.Background(), item("Robe"))
			So(errors.Is(err, errStorage), ShouldBeTrue)
			So(r.Partition, ShouldEqual, types.PartitionFemme)
		})
	})
}
