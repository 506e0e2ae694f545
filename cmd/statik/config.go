package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	statik "github.com/jward/statik"
)

// tomlConfig mirrors the TOML schema from spec §6; loadConfig translates
// it directly into a statik.Config. go-toml/v2 is the TOML library used
// across the retrieval pack's CLI-layer config readers.
type tomlConfig struct {
	Rules []tomlRule `toml:"rules"`

	EntryPoints struct {
		Patterns    []string `toml:"patterns"`
		Annotations []string `toml:"annotations"`
	} `toml:"entry_points"`
}

type tomlRule struct {
	ID           string `toml:"id"`
	Severity     string `toml:"severity"`
	Description  string `toml:"description"`
	Rationale    string `toml:"rationale"`
	FixDirection string `toml:"fix_direction"`

	Boundary *struct {
		From   []string `toml:"from"`
		Deny   []string `toml:"deny"`
		Except []string `toml:"except"`
	} `toml:"boundary"`

	Layer *struct {
		Layers []struct {
			Name     string   `toml:"name"`
			Patterns []string `toml:"patterns"`
		} `toml:"layers"`
	} `toml:"layer"`

	Containment *struct {
		Module    []string `toml:"module"`
		PublicAPI []string `toml:"public_api"`
	} `toml:"containment"`

	ImportRestriction *struct {
		Target          []string `toml:"target"`
		RequireTypeOnly bool     `toml:"require_type_only"`
		ForbiddenNames  []string `toml:"forbidden_names"`
		AllowedNames    []string `toml:"allowed_names"`
	} `toml:"import_restriction"`

	FanLimit *struct {
		Pattern   []string `toml:"pattern"`
		MaxFanIn  *int     `toml:"max_fan_in"`
		MaxFanOut *int     `toml:"max_fan_out"`
	} `toml:"fan_limit"`
}

// loadConfig reads the rule configuration from .statik/rules.toml, falling
// back to statik.toml at the project root (spec §6: "`.statik/rules.toml`
// wins when both exist"). A missing file yields a zero-value config
// (no rules, no extra entry points), not an error.
func loadConfig(repoRoot, explicitPath string) (statik.Config, error) {
	path := explicitPath
	if path == "" {
		for _, c := range []string{repoRoot + "/.statik/rules.toml", repoRoot + "/statik.toml"} {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}
	if path == "" {
		return statik.Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return statik.Config{}, &statik.ConfigError{File: path, Message: err.Error()}
	}
	var raw tomlConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return statik.Config{}, &statik.ConfigError{File: path, Message: err.Error()}
	}

	rules, err := translateRules(path, raw.Rules)
	if err != nil {
		return statik.Config{}, err
	}

	return statik.Config{
		Rules: rules,
		EntryPoints: statik.EntryPointConfig{
			Patterns: raw.EntryPoints.Patterns, Annotations: raw.EntryPoints.Annotations,
		},
	}, nil
}

func translateRules(path string, raw []tomlRule) ([]statik.RuleConfig, error) {
	out := make([]statik.RuleConfig, 0, len(raw))
	for i, r := range raw {
		if r.ID == "" {
			return nil, &statik.ConfigError{File: path, Line: i + 1, Message: "rule missing id"}
		}
		if _, err := statik.ParseSeverity(r.Severity); err != nil {
			return nil, &statik.ConfigError{File: path, Line: i + 1, Message: fmt.Sprintf("rule %q: %v", r.ID, err)}
		}

		rc := statik.RuleConfig{
			ID: r.ID, Severity: r.Severity, Description: r.Description,
			Rationale: r.Rationale, FixDirection: r.FixDirection,
		}
		switch {
		case r.Boundary != nil:
			rc.Boundary = &statik.BoundaryRule{From: r.Boundary.From, Deny: r.Boundary.Deny, Except: r.Boundary.Except}
		case r.Layer != nil:
			var layers []statik.LayerDef
			for _, l := range r.Layer.Layers {
				layers = append(layers, statik.LayerDef{Name: l.Name, Patterns: l.Patterns})
			}
			rc.Layer = &statik.LayerRule{Layers: layers}
		case r.Containment != nil:
			rc.Containment = &statik.ContainmentRule{Module: r.Containment.Module, PublicAPI: r.Containment.PublicAPI}
		case r.ImportRestriction != nil:
			rc.ImportRestriction = &statik.ImportRestrictionRule{
				Target: r.ImportRestriction.Target, RequireTypeOnly: r.ImportRestriction.RequireTypeOnly,
				ForbiddenNames: r.ImportRestriction.ForbiddenNames, AllowedNames: r.ImportRestriction.AllowedNames,
			}
		case r.FanLimit != nil:
			rc.FanLimit = &statik.FanLimitRule{Pattern: r.FanLimit.Pattern, MaxFanIn: r.FanLimit.MaxFanIn, MaxFanOut: r.FanLimit.MaxFanOut}
		default:
			return nil, &statik.ConfigError{File: path, Line: i + 1, Message: fmt.Sprintf("rule %q: no rule kind specified", r.ID)}
		}
		out = append(out, rc)
	}
	return out, nil
}

func discoveryConfigFromFlags(include, exclude, langs []string) statik.DiscoveryConfig {
	return statik.DiscoveryConfig{Include: include, Exclude: exclude, Languages: langs}
}
