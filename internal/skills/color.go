package skills

import (
	"crypto/rand"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// ColorSkill converts and manipulates colors across hex, rgb() and hsl().
type ColorSkill struct{}

// NewColorSkill returns the color skill.
func NewColorSkill() *ColorSkill { return &ColorSkill{} }

func (s *ColorSkill) Name() string        { return "color" }
func (s *ColorSkill) Description() string { return "Color: convert, contrast, blend, palettes" }

type colorInput struct {
	Color string `json:"color" jsonschema:"description=Color as hex (#FF0000), rgb(255,0,0), hsl(0,100%,50%) or a named color"`
}

type colorPairInput struct {
	Color1 string `json:"color1" jsonschema:"description=First color"`
	Color2 string `json:"color2" jsonschema:"description=Second color"`
}

type colorBlendInput struct {
	Color1 string  `json:"color1" jsonschema:"description=First color"`
	Color2 string  `json:"color2" jsonschema:"description=Second color"`
	Ratio  float64 `json:"ratio,omitempty" jsonschema:"description=Blend ratio 0-1 (default: 0.5)"`
}

type colorAmountInput struct {
	Color  string  `json:"color" jsonschema:"description=Color to adjust"`
	Amount float64 `json:"amount,omitempty" jsonschema:"description=Adjustment amount 0-1 (default: 0.2)"`
}

type colorRandomInput struct {
	Count int `json:"count,omitempty" jsonschema:"description=Number of random colors (default: 1)"`
}

func (s *ColorSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("color_convert", "Convert a color between hex, RGB and HSL", colorInput{}, s.convert),
		newTool("color_contrast", "Calculate the WCAG contrast ratio of two colors", colorPairInput{}, s.contrast),
		newTool("color_blend", "Blend two colors", colorBlendInput{}, s.blend),
		newTool("color_lighten", "Lighten a color", colorAmountInput{}, s.lighten),
		newTool("color_darken", "Darken a color", colorAmountInput{}, s.darken),
		newTool("color_random", "Generate random colors", colorRandomInput{}, s.random),
	}
}

// =============================================================================
// Pure color math
// =============================================================================

type rgb struct{ r, g, b int }

func hexToRGB(hexColor string) (rgb, error) {
	h := strings.TrimPrefix(hexColor, "#")
	if len(h) == 3 {
		h = strings.Repeat(string(h[0]), 2) + strings.Repeat(string(h[1]), 2) + strings.Repeat(string(h[2]), 2)
	}
	if len(h) != 6 {
		return rgb{}, fmt.Errorf("cannot parse color: %s", hexColor)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("cannot parse color: %s", hexColor)
	}
	return rgb{int(n >> 16 & 0xFF), int(n >> 8 & 0xFF), int(n & 0xFF)}, nil
}

func (c rgb) hex() string {
	return strings.ToUpper(fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b))
}

// hsl converts to HSL with integer degrees/percentages, truncating like the
// reference conversion (so pure red is exactly hsl(0, 100%, 50%)).
func (c rgb) hsl() (int, int, int) {
	r, g, b := float64(c.r)/255, float64(c.g)/255, float64(c.b)/255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l := (maxC + minC) / 2

	var h, sat float64
	if maxC != minC {
		d := maxC - minC
		if l > 0.5 {
			sat = d / (2 - maxC - minC)
		} else {
			sat = d / (maxC + minC)
		}
		switch maxC {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}
	return int(h * 360), int(sat * 100), int(l * 100)
}

func hslToRGB(h, sat, l int) rgb {
	hf, sf, lf := float64(h)/360, float64(sat)/100, float64(l)/100

	if sf == 0 {
		v := int(lf * 255)
		return rgb{v, v, v}
	}
	hue := func(p, q, t float64) float64 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		switch {
		case t < 1.0/6:
			return p + (q-p)*6*t
		case t < 1.0/2:
			return q
		case t < 2.0/3:
			return p + (q-p)*(2.0/3-t)*6
		}
		return p
	}
	q := lf + sf - lf*sf
	if lf < 0.5 {
		q = lf * (1 + sf)
	}
	p := 2*lf - q
	return rgb{
		int(hue(p, q, hf+1.0/3) * 255),
		int(hue(p, q, hf) * 255),
		int(hue(p, q, hf-1.0/3) * 255),
	}
}

var (
	rgbRe = regexp.MustCompile(`(?i)^rgb\s*\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*\)$`)
	hslRe = regexp.MustCompile(`(?i)^hsl\s*\(\s*(\d+)\s*,\s*(\d+)%?\s*,\s*(\d+)%?\s*\)$`)
)

var namedColors = map[string]rgb{
	"red": {255, 0, 0}, "green": {0, 128, 0}, "blue": {0, 0, 255},
	"white": {255, 255, 255}, "black": {0, 0, 0}, "yellow": {255, 255, 0},
	"cyan": {0, 255, 255}, "magenta": {255, 0, 255}, "orange": {255, 165, 0},
	"purple": {128, 0, 128}, "pink": {255, 192, 203}, "gray": {128, 128, 128},
}

func parseColor(color string) (rgb, error) {
	color = strings.TrimSpace(color)

	if strings.HasPrefix(color, "#") {
		return hexToRGB(color)
	}
	if m := rgbRe.FindStringSubmatch(color); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		return rgb{r, g, b}, nil
	}
	if m := hslRe.FindStringSubmatch(color); m != nil {
		h, _ := strconv.Atoi(m[1])
		sat, _ := strconv.Atoi(m[2])
		l, _ := strconv.Atoi(m[3])
		return hslToRGB(h, sat, l), nil
	}
	if c, ok := namedColors[strings.ToLower(color)]; ok {
		return c, nil
	}
	return rgb{}, fmt.Errorf("cannot parse color: %s", color)
}

// luminance returns relative luminance per WCAG 2.0.
func (c rgb) luminance() float64 {
	lin := func(v int) float64 {
		f := float64(v) / 255
		if f <= 0.03928 {
			return f / 12.92
		}
		return math.Pow((f+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.r) + 0.7152*lin(c.g) + 0.0722*lin(c.b)
}

func colorPayload(c rgb) map[string]interface{} {
	h, sat, l := c.hsl()
	return map[string]interface{}{
		"hex": c.hex(),
		"rgb": fmt.Sprintf("rgb(%d, %d, %d)", c.r, c.g, c.b),
		"hsl": fmt.Sprintf("hsl(%d, %d%%, %d%%)", h, sat, l),
		"values": map[string]int{
			"r": c.r, "g": c.g, "b": c.b,
			"h": h, "s": sat, "l": l,
		},
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *ColorSkill) convert(args schema.Args) (string, error) {
	c, err := parseColor(args.String("color", ""))
	if err != nil {
		return "", err
	}
	return jsonBlob(colorPayload(c)), nil
}

func (s *ColorSkill) contrast(args schema.Args) (string, error) {
	c1, err := parseColor(args.String("color1", ""))
	if err != nil {
		return "", err
	}
	c2, err := parseColor(args.String("color2", ""))
	if err != nil {
		return "", err
	}

	l1, l2 := c1.luminance(), c2.luminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	ratio := (l1 + 0.05) / (l2 + 0.05)

	return jsonBlob(map[string]interface{}{
		"color1":        c1.hex(),
		"color2":        c2.hex(),
		"ratio":         math.Round(ratio*100) / 100,
		"aa_normal":     ratio >= 4.5,
		"aa_large":      ratio >= 3,
		"aaa_normal":    ratio >= 7,
		"aaa_large":     ratio >= 4.5,
	}), nil
}

func (s *ColorSkill) blend(args schema.Args) (string, error) {
	c1, err := parseColor(args.String("color1", ""))
	if err != nil {
		return "", err
	}
	c2, err := parseColor(args.String("color2", ""))
	if err != nil {
		return "", err
	}
	ratio := args.Float("ratio", 0.5)
	if ratio < 0 || ratio > 1 {
		return "Ratio must be between 0 and 1", nil
	}

	blended := rgb{
		int(float64(c1.r)*(1-ratio) + float64(c2.r)*ratio),
		int(float64(c1.g)*(1-ratio) + float64(c2.g)*ratio),
		int(float64(c1.b)*(1-ratio) + float64(c2.b)*ratio),
	}
	out := colorPayload(blended)
	out["blend_of"] = []string{c1.hex(), c2.hex()}
	out["ratio"] = ratio
	return jsonBlob(out), nil
}

// adjustLightness moves the HSL lightness up (positive) or down (negative).
func adjustLightness(c rgb, delta int) rgb {
	h, sat, l := c.hsl()
	l += delta
	if l > 100 {
		l = 100
	}
	if l < 0 {
		l = 0
	}
	return hslToRGB(h, sat, l)
}

func (s *ColorSkill) lighten(args schema.Args) (string, error) {
	c, err := parseColor(args.String("color", ""))
	if err != nil {
		return "", err
	}
	amount := args.Float("amount", 0.2)
	return jsonBlob(colorPayload(adjustLightness(c, int(amount*100)))), nil
}

func (s *ColorSkill) darken(args schema.Args) (string, error) {
	c, err := parseColor(args.String("color", ""))
	if err != nil {
		return "", err
	}
	amount := args.Float("amount", 0.2)
	return jsonBlob(colorPayload(adjustLightness(c, -int(amount*100)))), nil
}

func (s *ColorSkill) random(args schema.Args) (string, error) {
	count := args.Int("count", 1)
	if count < 1 {
		count = 1
	}
	if count > 50 {
		count = 50
	}

	colors := make([]map[string]interface{}, count)
	for i := range colors {
		b := make([]byte, 3)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate color: %w", err)
		}
		colors[i] = colorPayload(rgb{int(b[0]), int(b[1]), int(b[2])})
	}
	return jsonBlob(map[string]interface{}{
		"count":  count,
		"colors": colors,
	}), nil
}
