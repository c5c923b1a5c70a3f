package pdf

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var defaultThemesYAML []byte

const (
	BandNone     = "none"
	BandSolid    = "solid"
	BandDiagonal = "diagonal"
	BandTag      = "tag"
)

type HeaderBand struct {
	Style    string  `yaml:"style"`
	HeightMM float64 `yaml:"height_mm"`
}

type Theme struct {
	Name            string     `yaml:"-"`
	Label           string     `yaml:"label"`
	Accent          string     `yaml:"accent"`
	TableHeaderFill string     `yaml:"table_header_fill"`
	CardFill        string     `yaml:"card_fill"`
	Font            string     `yaml:"font"`
	HeaderBand      HeaderBand `yaml:"header_band"`
	Cards           bool       `yaml:"cards"`
	ClassicLayout   bool       `yaml:"classic_layout"`
}

// Themes is the set of PDF themes keyed by name.
type Themes struct {
	Default string           `yaml:"default"`
	Themes  map[string]Theme `yaml:"themes"`
}

// LoadThemes parses the embedded themes, or path when it is not empty.
func LoadThemes(path string) (Themes, error) {
	data := defaultThemesYAML
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Themes{}, fmt.Errorf("read themes file: %w", err)
		}
		data = raw
	}
	return ParseThemes(data)
}

// DefaultThemes returns the embedded themes and panics if they are invalid.
func DefaultThemes() Themes {
	t, err := ParseThemes(defaultThemesYAML)
	if err != nil {
		panic("embedded themes.yaml: " + err.Error())
	}
	return t
}

func ParseThemes(data []byte) (Themes, error) {
	var t Themes
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Themes{}, fmt.Errorf("parse themes: %w", err)
	}
	if len(t.Themes) == 0 {
		return Themes{}, fmt.Errorf("parse themes: no theme defined")
	}
	for name, theme := range t.Themes {
		theme.Name = name
		if theme.Font == "" {
			theme.Font = "Helvetica"
		}
		switch theme.HeaderBand.Style {
		case "":
			theme.HeaderBand.Style = BandNone
		case BandNone, BandSolid, BandDiagonal, BandTag:
		default:
			return Themes{}, fmt.Errorf("theme %s: unknown header band style %q", name, theme.HeaderBand.Style)
		}
		if theme.HeaderBand.Style != BandNone && theme.HeaderBand.HeightMM <= 0 {
			theme.HeaderBand.HeightMM = 12
		}
		t.Themes[name] = theme
	}
	if _, ok := t.Themes[t.Default]; !ok {
		return Themes{}, fmt.Errorf("parse themes: default theme %q not defined", t.Default)
	}
	return t, nil
}

// Get returns the named theme, or the default one for unknown names.
func (t Themes) Get(name string) Theme {
	if theme, ok := t.Themes[name]; ok {
		return theme
	}
	return t.Themes[t.Default]
}

func (t Themes) Names() []string {
	names := make([]string, 0, len(t.Themes))
	for name := range t.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rgb struct{ r, g, b int }

var rgbDefault = rgb{17, 24, 39}

// parseHex reads "#RRGGBB" or "RRGGBB", falling back on bad input.
func parseHex(hex string, fallback rgb) rgb {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return fallback
	}
	return rgb{int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)}
}
