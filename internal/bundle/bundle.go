// Package bundle loads inference bundles: the region solver's dump of
// everything the explainer needs to re-derive and render a violation.
// A bundle is a TOML document carrying the source files (inline or by
// path), region definitions, categorized outlives constraints, optional
// SCC partition, liveness points, body metadata, and the violations to
// explain. Load parses with strict unknown-key rejection; Build turns
// the raw schema into a region.Inference.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"tenure/internal/diag"
)

// SchemaVersion is the bundle format this loader understands.
const SchemaVersion = 1

// SchemaError is a bundle validation failure with the diagnostic code
// the driver should report it under.
type SchemaError struct {
	Code diag.Code
	Msg  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
}

func schemaErrf(code diag.Code, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Bundle is the decoded TOML schema, unvalidated. Region IDs in the
// document are 1-based and implicit: the n-th [[region]] block is
// region n. File indices in spans count [[file]] blocks from zero.
type Bundle struct {
	Header      Header          `toml:"bundle"`
	Files       []FileEntry     `toml:"file"`
	Regions     []RegionDef     `toml:"region"`
	Blocks      []BlockDef      `toml:"block"`
	Constraints []ConstraintDef `toml:"constraint"`
	Live        []LiveDef       `toml:"live"`
	Groups      []GroupDef      `toml:"group"`
	Violations  []ViolationDef  `toml:"violation"`

	dir string // directory of the bundle file, for relative [[file]] paths
}

// Header describes the analyzed body.
type Header struct {
	Schema  int        `toml:"schema"`
	Fn      string     `toml:"fn"`
	Closure bool       `toml:"closure"`
	Span    string     `toml:"span"`
	Return  *ReturnDef `toml:"return"`
}

// ReturnDef describes the declared return type when the suggestion
// machinery needs it.
type ReturnDef struct {
	Opaque      bool   `toml:"opaque"`
	StaticBound bool   `toml:"static_bound"`
	Span        string `toml:"span"`
}

// FileEntry is one source file: either a path resolved relative to the
// bundle, or inline content stored as a virtual file.
type FileEntry struct {
	Path    string `toml:"path"`
	Content string `toml:"content"`
}

// RegionDef declares one region. All fields are optional; a bare
// [[region]] block is a plain inference variable.
type RegionDef struct {
	Name      string `toml:"name"`
	Var       string `toml:"var"`
	VarSpan   string `toml:"var_span"`
	DeclSpan  string `toml:"decl_span"`
	Universal bool   `toml:"universal"`
	Local     bool   `toml:"local"`
	Static    bool   `toml:"static"`
}

// BlockDef lists the statement spans of one basic block, terminator
// span last.
type BlockDef struct {
	Statements []string `toml:"statements"`
}

// ConstraintDef is one outlives edge sup -> sub. At is either
// "all:file:start:end" or "block.stmt".
type ConstraintDef struct {
	Sup      int    `toml:"sup"`
	Sub      int    `toml:"sub"`
	Category string `toml:"category"`
	At       string `toml:"at"`
}

// LiveDef lists the locations where a region is live.
type LiveDef struct {
	Region int      `toml:"region"`
	Points []string `toml:"points"`
}

// GroupDef is one equivalence group of the optional SCC partition.
type GroupDef struct {
	Regions []int `toml:"regions"`
}

// ViolationDef is one unprovable obligation `fr: outlived`.
type ViolationDef struct {
	Fr       int `toml:"fr"`
	Outlived int `toml:"outlived"`
}

// Dir returns the directory the bundle was loaded from.
func (b *Bundle) Dir() string { return b.dir }

// Load reads and decodes a bundle without consulting any cache.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by the caller
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	return decode(path, data)
}

// LoadCached reads a bundle through the cache: on a content hit the
// TOML parse is skipped. Every cache failure falls back silently to a
// full parse; the cache may be nil.
func LoadCached(path string, cache *Cache) (*Bundle, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by the caller
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	key := cacheKey(data)
	if cache != nil {
		var cached Bundle
		if ok, err := cache.Get(key, &cached); err == nil && ok {
			cached.dir = filepath.Dir(path)
			return &cached, nil
		}
	}

	b, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		_ = cache.Put(key, b) // cache errors never fail a load
	}
	return b, nil
}

func decode(path string, data []byte) (*Bundle, error) {
	var b Bundle
	meta, err := toml.Decode(string(data), &b)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, schemaErrf(diag.BndUnknownKey, "%s: unknown key %q", path, undecoded[0].String())
	}
	if !meta.IsDefined("bundle") {
		return nil, schemaErrf(diag.BndBadSchema, "%s: missing [bundle] section", path)
	}
	if b.Header.Schema != SchemaVersion {
		return nil, schemaErrf(diag.BndBadSchema, "%s: schema %d unsupported, want %d",
			path, b.Header.Schema, SchemaVersion)
	}
	b.dir = filepath.Dir(path)
	return &b, nil
}
