package prompt

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/samber/do"
	"github.com/samber/lo"
)

// Synthesizer turns Params into Directives. Classification is deterministic;
// every stylistic choice is drawn from the injected Source.
type Synthesizer struct {
	rnd Source
}

func NewSynthesizer(i *do.Injector) (*Synthesizer, error) {
	return New(rand.New(rand.NewSource(time.Now().UTC().UnixNano()))), nil
}

// New returns a Synthesizer drawing from rnd. Calls are serialized on rnd,
// so the Synthesizer may be shared between goroutines.
func New(rnd Source) *Synthesizer {
	return &Synthesizer{rnd: &lockedSource{src: rnd}}
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (s *Synthesizer) Synthesize(p Params, mode Mode) Directive {
	switch mode {
	case ModePreview:
		return s.preview(p)
	case ModeAngles:
		return s.angles(p)
	case ModeCollage:
		return s.collage(p)
	}
	pose, category := ResolvePose(s.rnd, p)
	return s.product(p, pose, category)
}

// Variations returns n product directives. Poses do not repeat until the
// pool of the product's category is used up.
func (s *Synthesizer) Variations(p Params, n int) []Directive {
	if pose, ok := p.explicitPose(); ok {
		return lo.Times(n, func(int) Directive { return s.product(p, pose, PoseExplicit) })
	}

	used := map[string]bool{}
	return lo.Times(n, func(int) Directive {
		category := s.clothingSplit(ClassifyProduct(p.ProductType))
		pool := lo.Filter(posePools[category], func(pose string, _ int) bool { return !used[pose] })
		if len(pool) == 0 {
			pool = posePools[category]
		}
		pose := pick(s.rnd, pool)
		used[pose] = true
		return s.product(p, pose, category)
	})
}

func (s *Synthesizer) clothingSplit(category PoseCategory) PoseCategory {
	if category == PoseClothingStanding && s.rnd.Float64() >= standingShare {
		return PoseClothingMedium
	}
	return category
}

func (s *Synthesizer) product(p Params, pose string, category PoseCategory) Directive {
	d := s.base(p, ModeProduct, lenses)
	d.Pose = pose
	d.PoseCategory = category
	d.Composition = ComposeShot(pose)
	d.FabricTexture = pick(s.rnd, fabricTextures)

	d.Text = assemble(
		styleHeader,
		subjectClause(p),
		productClause(p),
		"Pose: "+pose+".",
		d.Composition.String()+".",
		cameraClause(d),
		environmentClause(p, d.Environment),
		"Lighting: "+d.Lighting+".",
		"Skin: "+d.SkinTexture+".",
		"Fabric: "+d.FabricTexture+".",
		"Atmosphere: "+d.Imperfection+".",
		antiArtifact,
		sliderClause(p.Sliders),
		fidelityClause(p, modelFidelity),
		negativeClause(d.Negative),
	)
	return d
}

func (s *Synthesizer) preview(p Params) Directive {
	d := s.base(p, ModePreview, portraitLenses)
	d.Environment = EnvironmentStudio
	d.Lighting = lightingSetups[EnvironmentStudio][0]
	d.Pose = "waist-up portrait, facing the camera with a natural relaxed expression"
	d.PoseCategory = PoseExplicit
	d.Composition = ComposeShot(d.Pose)

	d.Text = assemble(
		portraitHeader,
		subjectClause(p),
		"Framing: "+d.Pose+".",
		cameraClause(d),
		"Setting: neutral grey seamless studio backdrop.",
		"Lighting: "+d.Lighting+".",
		"Skin: "+d.SkinTexture+".",
		"Atmosphere: "+d.Imperfection+".",
		portraitAntiArtifact,
		lo.Ternary(len(p.ModelPhoto) > 0, portraitFidelity, ""),
		negativeClause(d.Negative),
	)
	return d
}

func (s *Synthesizer) angles(p Params) Directive {
	d := s.base(p, ModeAngles, portraitLenses)
	d.Environment = EnvironmentStudio
	d.Lighting = pick(s.rnd, lightingSetups[EnvironmentStudio])
	d.Panels = angleFramings
	d.AspectRatio = AspectRatio1x1
	d.Composition = fullBody

	d.Text = assemble(
		portraitHeader,
		"Create a 2x2 grid collage of four photographs of the same person, one per panel, separated by thin white borders.",
		subjectClause(p),
		panelsClause(d.Panels),
		cameraClause(d),
		"Setting: neutral light grey seamless studio backdrop, identical in every panel.",
		"Lighting: "+d.Lighting+", consistent across all panels.",
		"Skin: "+d.SkinTexture+".",
		portraitAntiArtifact,
		lo.Ternary(len(p.ModelPhoto) > 0, portraitFidelity, ""),
		negativeClause(d.Negative),
	)
	return d
}

func (s *Synthesizer) collage(p Params) Directive {
	d := s.base(p, ModeCollage, lenses)
	_, explicit := p.explicitPose()
	d.Panels = s.collagePoses(p)
	d.Pose = d.Panels[0]
	d.PoseCategory = lo.Ternary(explicit, PoseExplicit, ClassifyProduct(p.ProductType))
	d.AspectRatio = AspectRatio1x1
	d.Composition = ComposeShot(d.Pose)
	d.FabricTexture = pick(s.rnd, fabricTextures)

	d.Text = assemble(
		styleHeader,
		"Create a 2x2 grid collage of four photographs of the same model showcasing the same product, one pose per panel, separated by thin white borders.",
		subjectClause(p),
		productClause(p),
		panelsClause(d.Panels),
		cameraClause(d),
		environmentClause(p, d.Environment),
		"Lighting: "+d.Lighting+", consistent across all panels.",
		"Skin: "+d.SkinTexture+".",
		"Fabric: "+d.FabricTexture+".",
		antiArtifact,
		sliderClause(p.Sliders),
		fidelityClause(p, modelFidelity),
		negativeClause(d.Negative),
	)
	return d
}

// collagePoses returns four distinct poses, starting with the explicit pose
// when there is one.
func (s *Synthesizer) collagePoses(p Params) []string {
	category := ClassifyProduct(p.ProductType)
	pool := posePools[category]
	if category == PoseClothingStanding {
		pool = append(append([]string{}, pool...), posePools[PoseClothingMedium]...)
	}

	var poses []string
	if pose, ok := p.explicitPose(); ok {
		poses = append(poses, pose)
	}
	for len(poses) < len(angleFramings) {
		rest := lo.Without(pool, poses...)
		if len(rest) == 0 {
			rest = pool
		}
		poses = append(poses, pick(s.rnd, rest))
	}
	return poses
}

// base draws the choices shared by every mode.
func (s *Synthesizer) base(p Params, mode Mode, lensPool []Lens) Directive {
	env := ClassifyEnvironment(p.Background)
	lighting := lightingSetups[env]
	if strings.TrimSpace(p.Background) == "" {
		lighting = genericLighting
	}
	return Directive{
		Mode:         mode,
		Environment:  env,
		Camera:       pick(s.rnd, cameraRigs),
		Lens:         pick(s.rnd, lensPool),
		Lighting:     pick(s.rnd, lighting),
		SkinTexture:  pick(s.rnd, skinTextures),
		Imperfection: pick(s.rnd, imperfections),
		Negative:     append([]string{}, NegativeConstraints...),
		AspectRatio:  p.AspectRatio,
		Resolution:   p.Resolution,
		References:   p.references(),
	}
}

func assemble(clauses ...string) string {
	return strings.Join(lo.Filter(clauses, func(c string, _ int) bool { return c != "" }), "\n\n")
}

func subjectClause(p Params) string {
	var b strings.Builder
	b.WriteString("Subject: a " + string(lo.Ternary(p.Gender == "", Female, p.Gender)) + " fashion model")
	if p.Age > 0 {
		fmt.Fprintf(&b, ", %d years old", p.Age)
	}
	if p.Height > 0 {
		fmt.Fprintf(&b, ", %d cm tall", p.Height)
	}
	if desc := strings.TrimSpace(p.ModelDescription); desc != "" {
		b.WriteString(". " + desc)
	}
	return b.String() + "."
}

func productClause(p Params) string {
	product := strings.TrimSpace(p.ProductType)
	clothing := strings.TrimSpace(p.Clothing)
	switch {
	case product != "" && clothing != "":
		return "Product: " + product + ". Outfit: " + clothing + "."
	case product != "":
		return "Product: " + product + ", shown clearly as the hero of the shot."
	case clothing != "":
		return "Outfit: " + clothing + "."
	}
	return "Outfit: a stylish contemporary look suited to the setting."
}

func cameraClause(d Directive) string {
	return "Shot on " + d.Camera + " with " + d.Lens.String() + "."
}

func environmentClause(p Params, env Environment) string {
	bg := strings.TrimSpace(p.Background)
	if bg == "" {
		return "Setting: clean seamless studio backdrop."
	}
	return "Setting: " + bg + " (" + string(env) + " environment)."
}

func panelsClause(panels []string) string {
	lines := lo.Map(panels, func(p string, i int) string { return fmt.Sprintf("Panel %d: %s.", i+1, p) })
	return strings.Join(lines, "\n")
}

// sliderClause adds a fragment for every slider above the threshold. It is an
// on/off gate, not a weighting.
func sliderClause(s *Sliders) string {
	if s == nil {
		return ""
	}
	c := s.clamped()
	fragments := lo.FilterMap(sliderFragments, func(f sliderFragment, _ int) (string, bool) {
		return f.fragment, f.value(c) > sliderThreshold
	})
	return strings.Join(fragments, " ")
}

func fidelityClause(p Params, model string) string {
	return assemble(
		lo.Ternary(len(p.ModelPhoto) > 0, model, ""),
		lo.Ternary(len(p.ProductImage) > 0, productFidelity, ""),
		lo.Ternary(len(p.BackgroundImage) > 0, backgroundFidelity, ""),
	)
}

func negativeClause(negative []string) string {
	return "Negative constraints, the image must not contain: " + strings.Join(negative, "; ") + "."
}
