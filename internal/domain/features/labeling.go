package features

import (
	"sort"
	"strings"

	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
)

// weakLabelThreshold is the share of interactions one gender needs for a
// confident weak label.
const weakLabelThreshold = 0.4

// InteractionRow is one customer/article interaction from the raw training export.
type InteractionRow struct {
	ArticleID        string
	CustomerID       string
	ProdName         string
	ProductTypeName  string
	ProductGroupName string
	Gender           string
	InteractionType  string
}

// ArticleFeatures are the per-article aggregates the classifier is trained on.
type ArticleFeatures struct {
	ArticleID        string
	ProdName         string
	ProductTypeName  string
	ProductGroupName string

	TotalInteractions  int
	MaleInteractions   int
	FemaleInteractions int

	PurchaseCount int
	LikeCount     int
	CartCount     int

	TotalPurchases  int
	MalePurchases   int
	FemalePurchases int

	MalePct   float64
	FemalePct float64

	TargetGender types.Label
}

// Input returns the encoder input for this article, counters included. It has
// the same shape the serving path encodes.
func (a ArticleFeatures) Input() Input {
	return Input{
		Name:          a.ProdName,
		Type:          a.ProductTypeName,
		Group:         a.ProductGroupName,
		PurchaseCount: float64(a.PurchaseCount),
		LikeCount:     float64(a.LikeCount),
		CartCount:     float64(a.CartCount),
	}
}

// TrainingText is the trimmed text the vectorizer was fitted on.
func (a ArticleFeatures) TrainingText() string {
	return strings.TrimSpace(a.ProdName + " " + a.ProductTypeName + " " + a.ProductGroupName)
}

type interactionKind int

const (
	kindOther interactionKind = iota
	kindPurchase
	kindLike
	kindCart
)

func classifyInteraction(s string) interactionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purchase":
		return kindPurchase
	case "like":
		return kindLike
	case "add to cart", "add_to_cart", "add-to-cart":
		return kindCart
	default:
		return kindOther
	}
}

// WeakLabel derives the training target from the male/female interaction shares.
func WeakLabel(malePct, femalePct float64) types.Label {
	switch {
	case malePct > femalePct && malePct >= weakLabelThreshold:
		return types.Homme
	case femalePct > malePct && femalePct >= weakLabelThreshold:
		return types.Femme
	case malePct > femalePct:
		return types.Homme
	case femalePct > malePct:
		return types.Femme
	default:
		return types.Unisexe
	}
}

// BuildArticleTable aggregates raw interaction rows into one ArticleFeatures
// per article, sorted by article id. Every article that appears in rows is
// present, even without a counted interaction.
func BuildArticleTable(rows []InteractionRow) []ArticleFeatures {
	byID := make(map[string]*ArticleFeatures)
	order := make([]string, 0)

	for _, r := range rows {
		a, ok := byID[r.ArticleID]
		if !ok {
			a = &ArticleFeatures{ArticleID: r.ArticleID}
			byID[r.ArticleID] = a
			order = append(order, r.ArticleID)
		}
		if a.ProdName == "" {
			a.ProdName = r.ProdName
		}
		if a.ProductTypeName == "" {
			a.ProductTypeName = r.ProductTypeName
		}
		if a.ProductGroupName == "" {
			a.ProductGroupName = r.ProductGroupName
		}

		kind := classifyInteraction(r.InteractionType)
		if kind == kindOther {
			continue
		}

		gender, _ := types.ParseCustomerGender(r.Gender)
		hasCustomer := r.CustomerID != ""

		if hasCustomer {
			a.TotalInteractions++
		}
		switch gender {
		case types.Homme:
			a.MaleInteractions++
		case types.Femme:
			a.FemaleInteractions++
		}

		switch kind {
		case kindPurchase:
			a.PurchaseCount++
			if hasCustomer {
				a.TotalPurchases++
			}
			switch gender {
			case types.Homme:
				a.MalePurchases++
			case types.Femme:
				a.FemalePurchases++
			}
		case kindLike:
			a.LikeCount++
		case kindCart:
			a.CartCount++
		}
	}

	sort.Strings(order)
	out := make([]ArticleFeatures, 0, len(order))
	for _, id := range order {
		a := byID[id]
		if a.TotalInteractions > 0 {
			a.MalePct = float64(a.MaleInteractions) / float64(a.TotalInteractions)
			a.FemalePct = float64(a.FemaleInteractions) / float64(a.TotalInteractions)
		}
		a.TargetGender = WeakLabel(a.MalePct, a.FemalePct)
		out = append(out, *a)
	}
	return out
}
