package prompt

import (
	"strings"

	"github.com/samber/lo"
)

// Source is the randomness the synthesizer draws from. *math/rand.Rand
// satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

func pick[T any](rnd Source, pool []T) T {
	return pool[rnd.Intn(len(pool))]
}

type Lens struct {
	Name     string `json:"name"`
	Focal    string `json:"focal"`
	Aperture string `json:"aperture"`
	FocalMM  int    `json:"-"`
}

func (l Lens) String() string {
	return l.Name + " at " + l.Focal + " " + l.Aperture
}

var cameraRigs = []string{
	"Arri Alexa 65",
	"RED V-Raptor 8K",
	"Sony Venice 2",
	"Canon EOS R5 Mark II",
	"Phase One XF IQ4",
	"Hasselblad X2D 100C",
}

var lenses = []Lens{
	{"Zeiss Supreme Prime 85mm", "85mm", "f/1.4", 85},
	{"Canon RF 70-200mm L", "135mm", "f/2.8", 135},
	{"Sigma Art 105mm", "105mm", "f/1.4", 105},
	{"Sony FE 85mm GM II", "85mm", "f/1.4", 85},
	{"Zeiss Otus 55mm", "55mm", "f/1.4", 55},
	{"Canon RF 50mm L", "50mm", "f/1.2", 50},
	{"Leica Summilux-M 75mm", "75mm", "f/1.4", 75},
}

// portraitLenses are the lenses long enough for a flattering head-and-shoulders shot.
var portraitLenses = lo.Filter(lenses, func(l Lens, _ int) bool { return l.FocalMM >= 75 })

var lightingSetups = map[Environment][]string{
	EnvironmentStudio: {
		"Rembrandt lighting with key light at 45°, fill at -30°, 5600K daylight balanced softbox, subtle rim light from behind at 4200K, global illumination bounce from white v-flat",
		"Butterfly lighting setup, large octabox directly above model, 5000K color temperature, silver reflector below for subtle fill, volumetric haze at 15% density",
		"Split lighting with single Profoto D2 at 90°, 5600K, dramatic shadow side with minimal fill, hair light from behind at 3200K warm tungsten",
		"Broad commercial lighting, two large strip softboxes at 60° angles, 5400K neutral, white seamless background with gradient falloff, beauty dish for face",
		"Clamshell lighting setup, main beauty dish above at 45° down, reflector panel below, 5200K, even glamour illumination, subtle edge lights for separation",
	},
	EnvironmentOutdoor: {
		"Golden hour natural light, sun at 15° above horizon, warm 3200K backlight creating rim glow, natural bounce from surroundings, lens flare at edge of frame",
		"Overcast soft daylight, 6500K diffused sky acting as giant softbox, natural fill from all directions, subtle warm reflector at -15°, gentle atmospheric haze",
		"Blue hour twilight, 7500K ambient, portable LED panel at 4500K for face fill, distant lights creating bokeh orbs in background, moisture in air creating bloom",
		"Harsh midday sun with diffusion scrim overhead, creating controlled soft light at 5600K, negative fill on shadow side for contrast, ground reflection bounce",
		"Dappled forest light, mixed 5000-6000K through canopy, natural gobo shadows, practical edge light through leaves, humid atmosphere creating depth",
	},
	EnvironmentUrban: {
		"Modern interior with large window light at 5500K, architectural shadows creating pattern, practical warm 2800K accent lamps, reflective surfaces adding fill",
		"Street photography lighting, overcast 6000K sky with building bounce, subtle warm practicals from storefronts at 3200K, urban texture environment",
		"Late afternoon side light raking along a city block at 4800K, glass facades bouncing soft fill, shaded doorway creating natural negative fill",
	},
	EnvironmentBeach: {
		"Tropical golden light, low sun at 20° creating long shadows, 3500K warm rim light, sand acting as natural reflector below, salt spray in air creating soft bloom",
		"Caribbean open shade, blue sky fill at 7000K with warm 3200K reflector for face, ocean reflections adding dancing light patterns, humid atmospheric glow",
	},
	EnvironmentNeon: {
		"Neon-lit night scene, mixed 3500-6500K practical lights, face lit by warm 3800K tungsten shopfront, cool 6000K LED accent from side, wet street reflections",
		"Magenta and cyan neon tubes as key and rim, 2700K practical bulbs in background, light haze catching colored beams, glossy reflections on dark surfaces",
	},
}

// genericLighting is used when there is no background description at all.
var genericLighting = []string{
	"Soft studio lighting, large diffused key light at 45° angle, 5200K neutral temperature, subtle fill from reflector, clean even illumination, professional quality",
}

var skinTextures = []string{
	"visible skin micro-pores, subtle subsurface scattering on skin showing warm undertones, individual eyelash detail, fine peach fuzz on cheeks catching rim light, natural skin imperfections",
	"realistic skin texture with visible pore structure, subsurface scattering revealing blood flow undertones, micro-wrinkles near eyes, individual hair strands catching backlight, natural moles and freckles",
	"photorealistic skin rendering with subsurface light scatter, visible micro-texture, pore detail in T-zone, natural lip texture with moisture highlights, catch-light reflections in iris",
	"ultra-detailed skin with dermal translucency, visible vellus hair in rim light, natural under-eye texture, realistic lip surface with fine lines, corneal reflections showing environment",
}

var fabricTextures = []string{
	"fabric weave visible at close inspection, natural draping with gravity-accurate folds, thread-level detail on seams, realistic fabric interaction with body contours",
	"material texture showing fiber structure, authentic wrinkle patterns from wear, subtle sheen appropriate to material type, realistic button and zipper detail",
	"visible textile grain, natural fabric creasing at joints, accurate material weight behavior, thread count visible in macro areas, realistic stitching detail",
}

var imperfections = []string{
	"subtle dust motes visible in light beams, minor lens breathing, natural depth of field falloff with gentle bokeh circles",
	"atmospheric particulates catching light, micro chromatic aberration at frame edges, organic bokeh with cat-eye effect in corners",
	"faint volumetric haze in atmosphere, natural vignetting from lens optics, film-grain-like sensor noise at ISO 200",
	"environmental micro-particles in air, subtle lens distortion characteristics, natural highlight rolloff with smooth clipping",
}

var posePools = map[PoseCategory][]string{
	PoseAccessory: {
		"close-up portrait, head turned slightly to camera, hand lightly touching the accessory",
		"three-quarter angle head and shoulders, chin raised, accessory catching the key light",
		"side profile close-up with the accessory in sharp focus, soft gaze past the lens",
		"close-up detail, fingers framing the accessory near the face, relaxed expression",
	},
	PoseHandheld: {
		"three-quarter angle, holding the product at chest height toward the camera",
		"relaxed casual stance, product held naturally at the side, glancing at it",
		"lifestyle moment, presenting the product in open palms with a soft smile",
		"front facing view, product raised beside the face, confident eye contact",
	},
	PoseClothingStanding: {
		"full body front facing view, weight on one leg, arms relaxed at the sides",
		"full body three-quarter angle, one hand in pocket, mid-stride walking pose",
		"full body side profile, looking back over the shoulder toward the camera",
		"dynamic movement, full body captured mid-step with fabric in motion",
		"full body professional studio pose, hands lightly on hips, straight posture",
	},
	PoseClothingMedium: {
		"medium shot three-quarter angle, arms crossed loosely, direct eye contact",
		"waist-up front facing view, one hand adjusting the collar or hem",
		"medium shot relaxed casual pose, leaning slightly against a surface",
		"waist-up lifestyle moment, candid laugh with head tilted away from camera",
	},
}

// Composition is the shot framing implied by a pose.
type Composition struct {
	Type   string `json:"type"`
	Angle  string `json:"angle"`
	Height string `json:"height"`
}

func (c Composition) String() string {
	return "Shot type: " + c.Type + ", camera angle: " + c.Angle + ", camera height: " + c.Height
}

type keyedComposition struct {
	key         string
	composition Composition
}

var compositions = []keyedComposition{
	{"front", Composition{"MCU (Medium Close-Up)", "eye-level", "1.5m"}},
	{"three-quarter", Composition{"MS (Medium Shot)", "slight low angle at 10°", "1.3m"}},
	{"side", Composition{"CU (Close-Up)", "eye-level profile", "1.5m"}},
	{"dynamic", Composition{"MFS (Medium Full Shot)", "low angle at 25°", "0.8m"}},
	{"relaxed", Composition{"MS (Medium Shot)", "slight high angle at 10°", "1.7m"}},
	{"professional", Composition{"MCU (Medium Close-Up)", "eye-level", "1.5m"}},
	{"lifestyle", Composition{"MS (Medium Shot)", "candid eye-level", "1.4m"}},
	{"close-up", Composition{"ECU (Extreme Close-Up)", "eye-level", "1.5m"}},
	{"full", Composition{"FS (Full Shot)", "slight low angle at 5°", "1.0m"}},
}

var (
	fullBody       = Composition{"FS (Full Shot)", "slight low angle at 5°", "1.0m"}
	closeUp        = Composition{"ECU (Extreme Close-Up)", "eye-level", "1.5m"}
	dynamicMove    = Composition{"MFS (Medium Full Shot)", "low angle at 25°", "0.8m"}
	defaultCompose = Composition{"MS (Medium Shot)", "eye-level", "1.5m"}
)

// ComposeShot derives the shot framing from a pose description.
func ComposeShot(pose string) Composition {
	p := strings.ToLower(pose)
	if c, ok := lo.Find(compositions, func(c keyedComposition) bool { return strings.Contains(p, c.key) }); ok {
		return c.composition
	}
	switch {
	case containsAny(p, "полный", "wide", "рост"):
		return fullBody
	case containsAny(p, "крупн", "close", "detail"):
		return closeUp
	case containsAny(p, "динамич", "movement", "motion"):
		return dynamicMove
	}
	return defaultCompose
}

func containsAny(s string, subs ...string) bool {
	return lo.ContainsBy(subs, func(sub string) bool { return strings.Contains(s, sub) })
}

// angleFramings are the four panels of a model-angle collage.
var angleFramings = []string{
	"front facing view, waist-up, looking directly at camera",
	"three-quarter angle, waist-up, head turned 45° to the left",
	"side profile, head and shoulders, facing right",
	"full body, front facing, relaxed standing pose",
}

const styleHeader = "Hyper-realistic professional e-commerce product photography for a premium fashion marketplace."

const portraitHeader = "Hyper-realistic professional portrait photograph."

const antiArtifact = "CRITICAL STYLE DIRECTIVES: This must look like a real photograph taken by a professional photographer, NOT an AI-generated image. " +
	"Avoid any plastic, waxy, or unnaturally smooth skin. Avoid overly perfect symmetry. Include natural asymmetry in face and body. " +
	"Skin should have realistic warmth with visible texture. Eyes must have realistic moisture and reflective catchlights. " +
	"Hair should have individual strand detail with natural flyaways. The overall image must be indistinguishable from a real high-end fashion photograph."

const portraitAntiArtifact = "CRITICAL: This must look like a REAL photograph, not AI-generated. Natural skin texture with visible pores, " +
	"realistic eye moisture and catchlights, individual hair strand detail. Avoid any plastic, waxy, or airbrushed look. Include natural facial asymmetry."

const (
	modelFidelity = "IMPORTANT: The model in the generated image MUST look exactly like the person in the provided reference photo. " +
		"Preserve exact facial features, skin tone, eye color, face shape, and body proportions. This is the single most important requirement."
	portraitFidelity = "IMPORTANT: The generated person must look EXACTLY like the person in the reference photo. " +
		"Preserve all facial features, skin tone, eye color, bone structure, and body type with absolute fidelity."
	productFidelity = "IMPORTANT: Integrate the provided product image naturally; the model should be wearing/holding it with realistic fabric draping and body interaction."
	backgroundFidelity = "IMPORTANT: Use the provided background reference image as the environment. " +
		"Match the lighting conditions, color palette, and atmosphere of the reference background."
)

// NegativeConstraints are the defects every directive bans.
var NegativeConstraints = []string{
	"plastic or waxy skin",
	"airbrushed beauty filter",
	"extra or missing fingers",
	"deformed hands",
	"distorted facial features",
	"mismatched eyes",
	"warped or melted product details",
	"illegible or garbled text and logos",
	"duplicated limbs",
	"watermarks",
	"oversaturated HDR look",
	"cartoon or CGI rendering",
}

type sliderFragment struct {
	value    func(Sliders) int
	fragment string
}

var sliderFragments = []sliderFragment{
	{func(s Sliders) int { return s.Similarity }, "Keep the model's likeness to the reference as close as possible."},
	{func(s Sliders) int { return s.Stylization }, "Apply a bold editorial color grade and fashion-magazine styling."},
	{func(s Sliders) int { return s.Realism }, "Prioritize strict photographic realism over stylization."},
	{func(s Sliders) int { return s.Creativity }, "Allow an unexpected, creative composition and set dressing."},
	{func(s Sliders) int { return s.Detail }, "Render maximal micro-detail in fabric, skin and product surfaces."},
}
