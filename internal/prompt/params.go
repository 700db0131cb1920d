package prompt

import (
	"strings"

	"github.com/samber/lo"
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ParseGender accepts "male" in any case; everything else is female.
func ParseGender(s string) Gender {
	return lo.Ternary(strings.EqualFold(strings.TrimSpace(s), string(Male)), Male, Female)
}

type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio2x3  AspectRatio = "2:3"
	AspectRatio3x2  AspectRatio = "3:2"
	AspectRatio4x5  AspectRatio = "4:5"
	AspectRatio5x4  AspectRatio = "5:4"
	AspectRatio21x9 AspectRatio = "21:9"
	AspectRatioAuto AspectRatio = ""
)

var aspectRatios = []AspectRatio{
	AspectRatio1x1, AspectRatio3x4, AspectRatio4x3, AspectRatio9x16, AspectRatio16x9,
	AspectRatio2x3, AspectRatio3x2, AspectRatio4x5, AspectRatio5x4, AspectRatio21x9,
}

// ParseAspectRatio returns AspectRatioAuto for anything it does not know.
func ParseAspectRatio(s string) AspectRatio {
	ar := AspectRatio(strings.TrimSpace(s))
	return lo.Ternary(lo.Contains(aspectRatios, ar), ar, AspectRatioAuto)
}

type Resolution string

const (
	Resolution1K   Resolution = "1K"
	Resolution2K   Resolution = "2K"
	Resolution4K   Resolution = "4K"
	ResolutionAuto Resolution = ""
)

func ParseResolution(s string) Resolution {
	r := Resolution(strings.ToUpper(strings.TrimSpace(s)))
	return lo.Ternary(lo.Contains([]Resolution{Resolution1K, Resolution2K, Resolution4K}, r), r, ResolutionAuto)
}

// Sliders are coarse style controls. A value only matters once it passes
// sliderThreshold; there is no continuous blending.
type Sliders struct {
	Similarity  int `json:"similarity"`
	Stylization int `json:"stylization"`
	Realism     int `json:"realism"`
	Creativity  int `json:"creativity"`
	Detail      int `json:"detail"`
}

const sliderThreshold = 50

func (s Sliders) clamped() Sliders {
	c := func(v int) int { return lo.Clamp(v, 0, 100) }
	return Sliders{
		Similarity:  c(s.Similarity),
		Stylization: c(s.Stylization),
		Realism:     c(s.Realism),
		Creativity:  c(s.Creativity),
		Detail:      c(s.Detail),
	}
}

// Reference is an image handed to the upstream model alongside the text.
type Reference struct {
	Kind string
	Data []byte
}

const (
	ReferenceModel      = "model"
	ReferenceProduct    = "product"
	ReferenceBackground = "background"
)

// Params is everything a caller knows about the shot it wants.
type Params struct {
	ModelDescription string
	Gender           Gender
	Age              int
	Height           int
	ProductType      string
	Clothing         string
	Background       string
	Pose             string

	ModelPhoto      []byte
	ProductImage    []byte
	BackgroundImage []byte

	Sliders     *Sliders
	AspectRatio AspectRatio
	Resolution  Resolution
}

// AutoPose is the pose value that asks for classification.
const AutoPose = "auto"

func (p Params) explicitPose() (string, bool) {
	pose := strings.TrimSpace(p.Pose)
	if pose == "" || strings.EqualFold(pose, AutoPose) {
		return "", false
	}
	return pose, true
}

func (p Params) references() []Reference {
	refs := []Reference{
		{Kind: ReferenceModel, Data: p.ModelPhoto},
		{Kind: ReferenceProduct, Data: p.ProductImage},
		{Kind: ReferenceBackground, Data: p.BackgroundImage},
	}
	return lo.Filter(refs, func(r Reference, _ int) bool { return len(r.Data) > 0 })
}
