package artifact_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/zainab-hr/ProjetProduits/internal/adapters/artifact"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"bundle.json", "bundle.yaml"} {
		Convey("Given the "+name+" fixture", t, func() {
			b, err := artifact.Load(ctx, filepath.Join("testdata", name))
			So(err, ShouldBeNil)

			Convey("Then the encoder and model widths agree", func() {
				So(b.Encoder().Width(), ShouldEqual, 9)
				So(b.Model().InputWidth(), ShouldEqual, 9)
				So(b.Model().Classes(), ShouldResemble, []types.Label{types.Femme, types.Homme, types.Unisexe})
			})

			Convey("Then it classifies menswear and womenswear", func() {
				c := classifier.New(b, classifier.WithLogger(logger.Nop()))

				men, err := c.Classify(ctx, features.ServingInput("Classic Men's Jacket", "Outerwear", ""))
				So(err, ShouldBeNil)
				So(men.Label, ShouldEqual, types.Homme)
				So(men.Confidence, ShouldBeGreaterThan, 0.9)

				women, err := c.Classify(ctx, features.ServingInput("Robe longue", "Dress", ""))
				So(err, ShouldBeNil)
				So(women.Label, ShouldEqual, types.Femme)
			})
		})
	}

	for _, name := range []string{"nonorm.json", "nonorm.yaml"} {
		Convey("Given the "+name+" fixture with an explicit null norm", t, func() {
			b, err := artifact.Load(ctx, filepath.Join("testdata", name))
			So(err, ShouldBeNil)

			Convey("Then the lexical block keeps raw tf-idf weights", func() {
				v, err := b.Encoder().Encode(features.ServingInput("men jacket", "", ""))
				So(err, ShouldBeNil)
				dense := v.Dense()
				So(dense[0], ShouldAlmostEqual, 1.0)
				So(dense[1], ShouldAlmostEqual, 3.0)
			})
		})
	}

	Convey("Given a fixture without a norm key", t, func() {
		b, err := artifact.Load(ctx, filepath.Join("testdata", "defaultnorm.json"))
		So(err, ShouldBeNil)

		Convey("Then the lexical block is l2 normalized", func() {
			v, err := b.Encoder().Encode(features.ServingInput("men jacket", "", ""))
			So(err, ShouldBeNil)
			dense := v.Dense()
			So(dense[0], ShouldAlmostEqual, 1/math.Sqrt(10), 1e-9)
			So(dense[1], ShouldAlmostEqual, 3/math.Sqrt(10), 1e-9)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := artifact.Load(ctx, filepath.Join(t.TempDir(), "nope.json"))

		Convey("Then Load reports not found", func() {
			So(errors.Is(err, artifact.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a truncated file", t, func() {
		_, err := artifact.Load(ctx, filepath.Join("testdata", "truncated.json"))

		Convey("Then Load reports a corrupt bundle", func() {
			So(errors.Is(err, artifact.ErrCorrupt), ShouldBeTrue)
		})
	})

	Convey("Given a classifier fitted on a different vocabulary width", t, func() {
		_, err := artifact.Load(ctx, filepath.Join("testdata", "mismatch.json"))

		Convey("Then Load refuses the bundle as corrupt and inconsistent", func() {
			So(errors.Is(err, artifact.ErrCorrupt), ShouldBeTrue)
			So(errors.Is(err, features.ErrEncoding), ShouldBeTrue)
		})
	})
}
