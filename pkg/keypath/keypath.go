package keypath

import (
	"regexp"
	"strings"
)

// DefaultSeparator joins path segments unless a Config overrides it.
const DefaultSeparator = "/"

// camelBoundary matches the transition from a lowercase letter or digit to
// an uppercase letter, which is where kebab and snake transforms insert
// their separator.
var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// Transform is a name-transform policy applied to a raw segment name.
type Transform int

const (
	// TransformNone leaves the name unchanged.
	TransformNone Transform = iota
	// TransformKebab splits camelCase boundaries with "-" and lowercases.
	TransformKebab
	// TransformSnake splits camelCase boundaries with "_" and lowercases.
	TransformSnake
)

// Apply transforms a raw name according to the policy.
func (t Transform) Apply(name string) string {
	switch t {
	case TransformKebab:
		return strings.ToLower(camelBoundary.ReplaceAllString(name, "$1-$2"))
	case TransformSnake:
		return strings.ToLower(camelBoundary.ReplaceAllString(name, "${1}_${2}"))
	default:
		return name
	}
}

// Config is the root key configuration owned by a loader: an optional
// global prefix, the default name transform, and the separator used to
// join segments. The zero value means no prefix, identity transform, and
// the default separator.
type Config struct {
	Prefix    string
	Transform Transform
	Separator string
}

func (c Config) separator() string {
	if c.Separator == "" {
		return DefaultSeparator
	}
	return c.Separator
}

// Strategy decides how a single segment contributes to the composed path.
type Strategy struct {
	kind   strategyKind
	custom string
}

type strategyKind int

const (
	strategyInherit strategyKind = iota
	strategyKebab
	strategySnake
	strategySkip
	strategyCustom
)

// Inherit applies the root configuration's transform to the segment name.
func Inherit() Strategy { return Strategy{kind: strategyInherit} }

// Kebab forces the kebab-case transform for this segment regardless of the
// root configuration.
func Kebab() Strategy { return Strategy{kind: strategyKebab} }

// Snake forces the snake-case transform for this segment.
func Snake() Strategy { return Strategy{kind: strategySnake} }

// Skip drops the segment from the composed path entirely. Descendant
// segments are unaffected.
func Skip() Strategy { return Strategy{kind: strategySkip} }

// Custom replaces the segment's name outright with a fixed string, with no
// further transform applied. This pins a literal wire key independent of
// the declared name.
func Custom(name string) Strategy { return Strategy{kind: strategyCustom, custom: name} }

// IsSkip reports whether the strategy removes its segment from the path.
func (s Strategy) IsSkip() bool { return s.kind == strategySkip }

// apply resolves the segment's contributed name, with ok=false for
// skipped segments.
func (s Strategy) apply(name string, root Config) (string, bool) {
	switch s.kind {
	case strategySkip:
		return "", false
	case strategyKebab:
		return TransformKebab.Apply(name), true
	case strategySnake:
		return TransformSnake.Apply(name), true
	case strategyCustom:
		return s.custom, true
	default:
		return root.Transform.Apply(name), true
	}
}

// Segment is one accumulated path element: the raw declared name and the
// strategy governing how (or whether) it appears in the composed key.
type Segment struct {
	Name     string
	Strategy Strategy
}

// Build composes the fully-qualified storage key for an accumulated
// segment list. Skipped segments are dropped, each remaining segment's
// strategy is applied to its raw name, the global prefix (transformed with
// the root transform) is prepended when configured, and the result is
// joined with the configured separator.
//
// A path with zero remaining segments is a wiring bug, not a valid key:
// Build returns ErrEmptyKey so callers can fail fast instead of writing
// under an ambiguous empty key.
func Build(cfg Config, segments []Segment) (string, error) {
	parts := make([]string, 0, len(segments)+1)
	if cfg.Prefix != "" {
		parts = append(parts, cfg.Transform.Apply(cfg.Prefix))
	}
	for _, seg := range segments {
		name, ok := seg.Strategy.apply(seg.Name, cfg)
		if !ok || name == "" {
			continue
		}
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return "", ErrEmptyKey
	}
	return strings.Join(parts, cfg.separator()), nil
}
