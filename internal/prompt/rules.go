package prompt

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
)

type Environment string

const (
	EnvironmentStudio  Environment = "studio"
	EnvironmentUrban   Environment = "urban"
	EnvironmentOutdoor Environment = "outdoor"
	EnvironmentBeach   Environment = "beach"
	EnvironmentNeon    Environment = "neon"
)

type PoseCategory string

const (
	PoseAccessory        PoseCategory = "accessory"
	PoseHandheld         PoseCategory = "handheld"
	PoseClothingStanding PoseCategory = "clothing-standing"
	PoseClothingMedium   PoseCategory = "clothing-medium"
	PoseExplicit         PoseCategory = "explicit"
)

// Rule maps any of its keywords, matched as a case-insensitive substring,
// onto a category. Tables are evaluated top to bottom and the first hit wins.
// Text is padded with spaces and stripped of punctuation before matching, so a
// keyword like " cap " only matches the whole word.
type Rule[C any] struct {
	Category C
	Keywords []string
}

func (r Rule[C]) matches(text string) bool {
	return lo.ContainsBy(r.Keywords, func(k string) bool { return strings.Contains(text, k) })
}

// Classify runs text through rules and falls back to def.
func Classify[C any](rules []Rule[C], text string, def C) C {
	text = normalize(text)
	rule, ok := lo.Find(rules, func(r Rule[C]) bool { return r.matches(text) })
	return lo.Ternary(ok, rule.Category, def)
}

func normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return " " + text + " "
}

var EnvironmentRules = []Rule[Environment]{
	{EnvironmentStudio, []string{"studio", "студи", "white", "белый", "seamless", "циклорам"}},
	{EnvironmentUrban, []string{"urban", "street", "city", "cafe", "café", "restaurant", "interior", "indoor", "office", "shop", "store",
		"улиц", "город", "кафе", "ресторан", "интерьер", "офис", "магазин"}},
	{EnvironmentOutdoor, []string{"outdoor", "nature", "park", "garden", "forest", "field", "mountain",
		"парк", "сад", "лес", "природ", "поле", "горы"}},
	{EnvironmentBeach, []string{"beach", "ocean", " sea ", "seaside", "tropical", "пляж", "море", "моря", "морск", "океан", "тропи"}},
	{EnvironmentNeon, []string{"neon", "cyberpunk", "nightclub", "night club", "неон", "киберпанк", "клуб"}},
}

// ProductRules classify a product type. Garment nouns come first so that a
// colour or print ("cream", "bottle green", "watch print") does not turn a
// piece of clothing into an object. Anything left unmatched is clothing too.
var ProductRules = []Rule[PoseCategory]{
	{PoseClothingStanding, []string{"dress", "shirt", "sweater", "jumper", "hoodie", "jacket", " coat ", "blazer", "cardigan",
		"jeans", "trousers", "pants", "shorts", "skirt", "blouse", " suit ", "jumpsuit", "swimsuit", "bikini", "leggings",
		"плать", "футболк", "рубашк", "свитер", "куртк", "пальто", "пиджак", "кардиган", "джинс", "брюк", "шорт", "юбк",
		"блуз", "худи", "толстовк", "костюм", "комбинезон"}},
	{PoseAccessory, []string{"sunglasses", "eyeglasses", "glasses", "earring", "necklace", "bracelet", " watch ", " watches ",
		"wristwatch", "smartwatch", "jewel", "pendant", "brooch", " ring ", " rings ", " hat ", " hats ", " cap ", " caps ",
		"beanie", "scarf", "headband", " tie ",
		"очки", "серьг", "ожерель", "браслет", "часы", "украшен", "кулон", "шляп", "шапк", "шарф", "галстук"}},
	{PoseHandheld, []string{" bag ", " bags ", "handbag", "tote", "clutch", "backpack", "wallet", "purse", "phone",
		" bottle ", " bottles ", " cup ", " cups ", " mug ", " mugs ", "perfume", "cosmetic", "lipstick", " cream ",
		" book ", " books ", "umbrella", "headphones",
		"сумк", "клатч", "рюкзак", "кошел", "телефон", "бутыл", "чашк", "кружк", "духи", "парфюм", "космет", "помад", "крем", "книг", "зонт", "наушник"}},
}

// ClassifyEnvironment returns the environment for a background description.
func ClassifyEnvironment(background string) Environment {
	return Classify(EnvironmentRules, background, EnvironmentStudio)
}

// ClassifyProduct returns accessory, handheld or, for clothing, the
// PoseClothingStanding marker; the standing/medium split happens in
// ResolvePose.
func ClassifyProduct(productType string) PoseCategory {
	return Classify(ProductRules, productType, PoseClothingStanding)
}

const standingShare = 0.7

// ResolvePose honours an explicit pose and otherwise draws one from the pool
// of the product's category.
func ResolvePose(rnd Source, p Params) (string, PoseCategory) {
	if pose, ok := p.explicitPose(); ok {
		return pose, PoseExplicit
	}
	category := ClassifyProduct(p.ProductType)
	if category == PoseClothingStanding && rnd.Float64() >= standingShare {
		category = PoseClothingMedium
	}
	return pick(rnd, posePools[category]), category
}
