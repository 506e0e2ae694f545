package statik

// Config is the materialized configuration the core accepts (spec §1:
// "Accepts a parsed configuration value; does not itself read or parse
// config files — that is a CLI-layer concern"). cmd/statik/config.go is
// responsible for turning a TOML document into this value.
type Config struct {
	Discovery   DiscoveryConfig
	Rules       []RuleConfig
	EntryPoints EntryPointConfig
}

// DiscoveryConfig controls the Discovery component (spec §4.A).
type DiscoveryConfig struct {
	Include   []string
	Exclude   []string
	Languages []string
}

// EntryPointConfig extends the Entry-Point Resolver's built-in heuristics
// (spec §4.I).
type EntryPointConfig struct {
	Patterns    []string
	Annotations []string
}

// RuleConfig is one configured rule (spec §4.G). Exactly one of the
// kind-specific fields should be non-nil; ID and Severity are required by
// every kind.
type RuleConfig struct {
	ID          string
	Severity    string
	Description string
	Rationale   string
	FixDirection string

	Boundary          *BoundaryRule
	Layer             *LayerRule
	Containment       *ContainmentRule
	ImportRestriction *ImportRestrictionRule
	FanLimit          *FanLimitRule
}

// BoundaryRule forbids imports from files matching From into files
// matching Deny, unless the importer also matches Except.
type BoundaryRule struct {
	From   []string
	Deny   []string
	Except []string
}

// LayerRule declares an ordered stack of layers and forbids imports from
// a lower layer reaching into a higher one ("downward-only" imports).
type LayerRule struct {
	Layers []LayerDef
}

// LayerDef names one layer and the glob patterns that assign files to it.
type LayerDef struct {
	Name     string
	Patterns []string
}

// ContainmentRule requires that anything outside Module importing from it
// only reach symbols whose qualified name matches one of PublicAPI.
type ContainmentRule struct {
	Module    []string
	PublicAPI []string
}

// ImportRestrictionRule constrains how files matching Target may be
// imported: type-only, forbidding/allowing specific imported names.
type ImportRestrictionRule struct {
	Target          []string
	RequireTypeOnly bool
	ForbiddenNames  []string
	AllowedNames    []string
}

// FanLimitRule caps fan-in/fan-out for files matching Pattern.
type FanLimitRule struct {
	Pattern   []string
	MaxFanIn  *int
	MaxFanOut *int
}
