// Package config loads the rustmsg.toml configuration file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"rustmsg/internal/diag"
	"rustmsg/internal/render"
)

// Config controls normalization and rendering policy.
type Config struct {
	// HideWarnings suppresses non-error top-level diagnostics.
	HideWarnings bool `toml:"hide_warnings"`
	// LinkDistance is the line distance past which a child diagnostic gets an
	// explicit navigation link instead of sitting inline.
	LinkDistance uint32 `toml:"link_distance"`
	// RegionStyle selects how the host should draw regions: "outline" or "none".
	RegionStyle string `toml:"region_style"`
	Theme       Theme  `toml:"theme"`
}

// Theme are the stylesheet colors, CSS values.
type Theme struct {
	ErrorColor   string `toml:"error_color"`
	WarningColor string `toml:"warning_color"`
	NoteColor    string `toml:"note_color"`
	HelpColor    string `toml:"help_color"`
	ExtraCSS     string `toml:"extra_css"`
}

// Default returns the stock configuration.
func Default() Config {
	th := render.DefaultTheme()
	return Config{
		HideWarnings: false,
		LinkDistance: diag.DefaultLinkDistance,
		RegionStyle:  "outline",
		Theme: Theme{
			ErrorColor:   th.ErrorColor,
			WarningColor: th.WarningColor,
			NoteColor:    th.NoteColor,
			HelpColor:    th.HelpColor,
		},
	}
}

// Load reads a TOML config file over the defaults. Unknown keys are rejected
// so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.RegionStyle != "outline" && cfg.RegionStyle != "none" {
		return Config{}, fmt.Errorf("load config %s: invalid region_style %q (expected outline|none)", path, cfg.RegionStyle)
	}
	return cfg, nil
}

// RenderTheme converts the config colors into a renderer theme.
func (c Config) RenderTheme() render.Theme {
	return render.Theme{
		ErrorColor:   c.Theme.ErrorColor,
		WarningColor: c.Theme.WarningColor,
		NoteColor:    c.Theme.NoteColor,
		HelpColor:    c.Theme.HelpColor,
		ExtraCSS:     c.Theme.ExtraCSS,
	}
}
