package prompt

type Mode string

const (
	ModeProduct Mode = "product"
	ModePreview Mode = "preview"
	ModeAngles  Mode = "angles"
	ModeCollage Mode = "collage"
)

// Directive is a fully composed generation instruction plus the choices
// that went into it. It is never mutated after Synthesize returns.
type Directive struct {
	Mode         Mode         `json:"mode"`
	Text         string       `json:"text"`
	Negative     []string     `json:"negative"`
	Environment  Environment  `json:"environment"`
	PoseCategory PoseCategory `json:"pose_category,omitempty"`
	Pose         string       `json:"pose,omitempty"`
	Panels       []string     `json:"panels,omitempty"`
	Composition  Composition  `json:"composition"`
	Camera       string       `json:"camera"`
	Lens         Lens         `json:"lens"`
	Lighting     string       `json:"lighting"`

	SkinTexture   string `json:"skin_texture"`
	FabricTexture string `json:"fabric_texture,omitempty"`
	Imperfection  string `json:"imperfection"`

	AspectRatio AspectRatio `json:"aspect_ratio,omitempty"`
	Resolution  Resolution  `json:"resolution,omitempty"`

	References []Reference `json:"-"`
}
