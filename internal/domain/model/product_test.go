package model_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
	model "github.com/zainab-hr/ProjetProduits/internal/domain/model"
)

func TestProductInput(t *testing.T) {
	convey.Convey("Given a product input", t, func() {
		convey.Convey("When description and price are unset", func() {
			in := model.ProductInput{Name: "Veste", Category: "Outerwear"}

			convey.Convey("Then the group text is empty and the price is zero", func() {
				convey.So(in.GroupText(), convey.ShouldEqual, "")
				convey.So(in.PriceValue(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When description and price are set", func() {
			desc := "Garment Upper body"
			price := 49.9
			in := model.ProductInput{Name: "Veste", Category: "Outerwear", Description: &desc, Price: &price}

			convey.Convey("Then the description is used as group text", func() {
				convey.So(in.GroupText(), convey.ShouldEqual, desc)
				convey.So(in.PriceValue(), convey.ShouldEqual, 49.9)
			})
		})
	})
}

func TestBatchOutcome(t *testing.T) {
	convey.Convey("Given a batch outcome", t, func() {
		out := model.BatchOutcome{Total: 3, Homme: 1, Femme: 1, Errors: []model.BatchFailure{{Index: 1, ProductName: "x", Error: "boom"}}}

		convey.Convey("Then succeeded counts both partitions", func() {
			convey.So(out.Succeeded(), convey.ShouldEqual, 2)
			convey.So(out.Total, convey.ShouldEqual, out.Succeeded()+len(out.Errors))
		})
	})
}

func TestHealthReport(t *testing.T) {
	convey.Convey("Given health reports", t, func() {
		up := model.HealthReport{ModelLoaded: true, DBHomme: model.StatusOK, DBFemme: model.StatusOK}
		down := up
		down.DBFemme = model.StatusError

		convey.Convey("Then only a loaded model with both partitions up is healthy", func() {
			convey.So(up.Healthy(), convey.ShouldBeTrue)
			convey.So(down.Healthy(), convey.ShouldBeFalse)
			convey.So(model.HealthReport{DBHomme: model.StatusOK, DBFemme: model.StatusOK}.Healthy(), convey.ShouldBeFalse)
		})
	})
}
