package prompt

import (
	"github.com/samber/lo"
)

// Preset is a ready-made value the UI offers for a form field.
type Preset struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var backgroundPresets = []Preset{
	{"Studio", "clean white seamless studio backdrop"},
	{"City street", "busy city street at golden hour"},
	{"Cafe", "cozy cafe interior with warm wood tones"},
	{"Park", "green park with soft dappled sunlight"},
	{"Beach", "tropical beach with turquoise water"},
	{"Neon", "neon-lit cyberpunk alley at night"},
}

var productPresets = []Preset{
	{"T-shirt", "t-shirt"},
	{"Dress", "dress"},
	{"Jacket", "jacket"},
	{"Jeans", "jeans"},
	{"Sunglasses", "sunglasses"},
	{"Earrings", "earrings"},
	{"Handbag", "handbag"},
	{"Perfume", "perfume bottle"},
}

// Presets groups every preset by the form field it fills. The poses are the
// pools the synthesizer draws from.
func Presets() map[string][]Preset {
	poses := []Preset{{"Auto", AutoPose}}
	for _, category := range []PoseCategory{PoseClothingStanding, PoseClothingMedium, PoseHandheld, PoseAccessory} {
		poses = append(poses, lo.Map(posePools[category], func(pose string, _ int) Preset {
			return Preset{Label: string(category), Value: pose}
		})...)
	}
	ratios := lo.Map(aspectRatios, func(ar AspectRatio, _ int) Preset {
		return Preset{Label: string(ar), Value: string(ar)}
	})
	resolutions := lo.Map([]Resolution{Resolution1K, Resolution2K, Resolution4K}, func(r Resolution, _ int) Preset {
		return Preset{Label: string(r), Value: string(r)}
	})
	return map[string][]Preset{
		"backgrounds":  backgroundPresets,
		"products":     productPresets,
		"poses":        poses,
		"aspectRatios": ratios,
		"resolutions":  resolutions,
	}
}
