package bundle

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"tenure/internal/diag"
	"tenure/internal/region"
	"tenure/internal/source"
)

// Violation is one unprovable obligation `fr: outlived_fr` recorded by
// the solver.
type Violation struct {
	Fr         region.RegionID
	OutlivedFr region.RegionID
}

// Result is a built bundle: the assembled inference plus the violations
// to explain against it.
type Result struct {
	Inference  *region.Inference
	Violations []Violation
}

// Build validates the bundle and assembles the inference state. Source
// files are registered in fs: disk-backed entries load relative to the
// bundle directory, inline entries become virtual files. All validation
// failures are *SchemaError values carrying the code to report under.
//
// Spans are written "file:start:end" with the file counted from zero in
// [[file]] order; locations are written "block.stmt". Region numbers in
// constraints, liveness, groups, and violations are 1-based [[region]]
// ordinals.
func (b *Bundle) Build(fs *source.FileSet) (*Result, error) {
	numRegions, err := safecast.Conv[uint32](len(b.Regions))
	if err != nil {
		panic(fmt.Errorf("region count overflow: %w", err))
	}

	bld := &builder{bundle: b, fs: fs, numRegions: numRegions}
	if err := bld.loadFiles(); err != nil {
		return nil, err
	}
	if err := bld.parseBlocks(); err != nil {
		return nil, err
	}
	body, err := bld.buildBody()
	if err != nil {
		return nil, err
	}
	namer, universals, err := bld.buildRegions()
	if err != nil {
		return nil, err
	}
	constraints, err := bld.buildConstraints()
	if err != nil {
		return nil, err
	}
	liveness, err := bld.buildLiveness()
	if err != nil {
		return nil, err
	}
	groups, err := bld.buildGroups()
	if err != nil {
		return nil, err
	}
	violations, err := bld.buildViolations()
	if err != nil {
		return nil, err
	}

	inf := region.NewInference(region.InferenceParams{
		NumRegions:  numRegions,
		Constraints: constraints,
		Groups:      groups,
		Liveness:    liveness,
		Universals:  universals,
		Body:        body,
		Namer:       namer,
		Files:       fs,
	})
	return &Result{Inference: inf, Violations: violations}, nil
}

// Validate runs the full Build against a throwaway file set, keeping
// only the error.
func (b *Bundle) Validate() error {
	_, err := b.Build(source.NewFileSet())
	return err
}

type builder struct {
	bundle     *Bundle
	fs         *source.FileSet
	numRegions uint32
	fileIDs    []source.FileID
	blocks     [][]source.Span
}

func (bld *builder) regionInRange(n int) bool {
	return n >= 1 && uint32(n) <= bld.numRegions
}

func (bld *builder) loadFiles() error {
	bld.fileIDs = make([]source.FileID, len(bld.bundle.Files))
	for i, fe := range bld.bundle.Files {
		if fe.Path == "" {
			return schemaErrf(diag.BndBadFile, "file %d: missing path", i)
		}
		if fe.Content != "" {
			bld.fileIDs[i] = bld.fs.AddVirtual(fe.Path, []byte(fe.Content))
			continue
		}
		id, err := bld.fs.Load(filepath.Join(bld.bundle.dir, fe.Path))
		if err != nil {
			return schemaErrf(diag.BndBadFile, "file %d: %v", i, err)
		}
		bld.fileIDs[i] = id
	}
	return nil
}

// parseSpan reads the "file:start:end" span syntax; what names the
// field being parsed for error messages.
func (bld *builder) parseSpan(what, s string) (source.Span, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return source.Span{}, schemaErrf(diag.BndBadSpan, "%s: span %q: want file:start:end", what, s)
	}
	file, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return source.Span{}, schemaErrf(diag.BndBadSpan, "%s: span %q: bad file index", what, s)
	}
	if int(file) >= len(bld.fileIDs) {
		return source.Span{}, schemaErrf(diag.BndBadSpan, "%s: span %q: file %d out of range (%d files)",
			what, s, file, len(bld.fileIDs))
	}
	start, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return source.Span{}, schemaErrf(diag.BndBadSpan, "%s: span %q: bad start offset", what, s)
	}
	end, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return source.Span{}, schemaErrf(diag.BndBadSpan, "%s: span %q: bad end offset", what, s)
	}
	if start > end {
		return source.Span{}, schemaErrf(diag.BndBadSpan, "%s: span %q: start past end", what, s)
	}
	id := bld.fileIDs[file]
	if content := bld.fs.Get(id).Content; int(end) > len(content) {
		return source.Span{}, schemaErrf(diag.BndBadSpan, "%s: span %q: end past file size %d",
			what, s, len(content))
	}
	return source.Span{File: id, Start: uint32(start), End: uint32(end)}, nil
}

// parseLocation reads the "block.stmt" location syntax and bounds-checks
// it against the declared blocks.
func (bld *builder) parseLocation(what, s string) (region.Location, error) {
	blockStr, stmtStr, ok := strings.Cut(s, ".")
	if !ok {
		return region.Location{}, schemaErrf(diag.BndBadLocation, "%s: location %q: want block.stmt", what, s)
	}
	block, err := strconv.ParseUint(blockStr, 10, 32)
	if err != nil {
		return region.Location{}, schemaErrf(diag.BndBadLocation, "%s: location %q: bad block index", what, s)
	}
	stmt, err := strconv.ParseUint(stmtStr, 10, 32)
	if err != nil {
		return region.Location{}, schemaErrf(diag.BndBadLocation, "%s: location %q: bad statement index", what, s)
	}
	if int(block) >= len(bld.blocks) {
		return region.Location{}, schemaErrf(diag.BndBadLocation, "%s: location %q: block %d out of range (%d blocks)",
			what, s, block, len(bld.blocks))
	}
	if int(stmt) >= len(bld.blocks[block]) {
		return region.Location{}, schemaErrf(diag.BndBadLocation, "%s: location %q: statement %d out of range (%d slots)",
			what, s, stmt, len(bld.blocks[block]))
	}
	return region.Location{Block: uint32(block), Statement: uint32(stmt)}, nil
}

// parseAt reads a constraint placement: "all:file:start:end" for a
// constraint that holds everywhere, "block.stmt" for a single point.
func (bld *builder) parseAt(what, s string) (region.Locations, error) {
	if rest, ok := strings.CutPrefix(s, "all:"); ok {
		sp, err := bld.parseSpan(what, rest)
		if err != nil {
			return region.Locations{}, err
		}
		return region.AllLocations(sp), nil
	}
	at, err := bld.parseLocation(what, s)
	if err != nil {
		return region.Locations{}, err
	}
	return region.SingleLocation(at), nil
}

func (bld *builder) parseBlocks() error {
	bld.blocks = make([][]source.Span, len(bld.bundle.Blocks))
	for i, blk := range bld.bundle.Blocks {
		spans := make([]source.Span, len(blk.Statements))
		for j, raw := range blk.Statements {
			sp, err := bld.parseSpan(fmt.Sprintf("block %d statement %d", i, j), raw)
			if err != nil {
				return err
			}
			spans[j] = sp
		}
		bld.blocks[i] = spans
	}
	return nil
}

func (bld *builder) buildBody() (*region.Body, error) {
	h := bld.bundle.Header
	fn := region.FuncInfo{Name: h.Fn, Closure: h.Closure}
	if h.Span != "" {
		sp, err := bld.parseSpan("bundle span", h.Span)
		if err != nil {
			return nil, err
		}
		fn.Span = sp
	}
	if h.Return != nil {
		ret := &region.ReturnInfo{
			Opaque:         h.Return.Opaque,
			HasStaticBound: h.Return.StaticBound,
		}
		if h.Return.Span != "" {
			sp, err := bld.parseSpan("return span", h.Return.Span)
			if err != nil {
				return nil, err
			}
			ret.Span = sp
		}
		fn.Return = ret
	}
	return region.NewBody(fn, bld.blocks), nil
}

func (bld *builder) buildRegions() (*region.NameTable, *region.UniversalRegions, error) {
	namer := region.NewNameTable()
	universals := region.NewUniversalRegions(bld.numRegions)
	staticSeen := region.NoRegionID

	for i, rd := range bld.bundle.Regions {
		r := region.RegionID(i + 1)
		switch {
		case rd.Static:
			if staticSeen.IsValid() {
				return nil, nil, schemaErrf(diag.BndDupStatic, "region %d: static already declared by region %d",
					i+1, int(staticSeen))
			}
			staticSeen = r
			universals.SetStatic(r)
			name := rd.Name
			if name == "" {
				name = "'static"
			}
			namer.SetName(r, name)
		case rd.Universal || rd.Local:
			// local implies universal: a region introduced by the body
			// itself is still universally quantified for it
			universals.MarkUniversal(r, rd.Local, rd.Name)
		}
		if !rd.Static && rd.Name != "" {
			namer.SetName(r, rd.Name)
		}
		if rd.Var != "" {
			raw, what := rd.VarSpan, fmt.Sprintf("region %d var_span", i+1)
			if raw == "" {
				raw, what = rd.DeclSpan, fmt.Sprintf("region %d decl_span", i+1)
			}
			if raw == "" {
				return nil, nil, schemaErrf(diag.BndBadRegion, "region %d: var %q needs var_span or decl_span",
					i+1, rd.Var)
			}
			sp, err := bld.parseSpan(what, raw)
			if err != nil {
				return nil, nil, err
			}
			namer.SetVar(r, rd.Var, sp)
		}
	}
	return namer, universals, nil
}

func (bld *builder) buildConstraints() (*region.ConstraintSet, error) {
	count, err := safecast.Conv[uint32](len(bld.bundle.Constraints))
	if err != nil {
		panic(fmt.Errorf("constraint count overflow: %w", err))
	}
	set := region.NewConstraintSet(count)
	for i, cd := range bld.bundle.Constraints {
		if !bld.regionInRange(cd.Sup) {
			return nil, schemaErrf(diag.BndBadConstraint, "constraint %d: sup %d out of range (%d regions)",
				i, cd.Sup, bld.numRegions)
		}
		if !bld.regionInRange(cd.Sub) {
			return nil, schemaErrf(diag.BndBadConstraint, "constraint %d: sub %d out of range (%d regions)",
				i, cd.Sub, bld.numRegions)
		}
		cat, ok := region.ParseCategory(cd.Category)
		if !ok {
			return nil, schemaErrf(diag.BndBadCategory, "constraint %d: unknown category %q", i, cd.Category)
		}
		locs, err := bld.parseAt(fmt.Sprintf("constraint %d", i), cd.At)
		if err != nil {
			return nil, err
		}
		set.Push(region.OutlivesConstraint{
			Sup:       region.RegionID(cd.Sup),
			Sub:       region.RegionID(cd.Sub),
			Category:  cat,
			Locations: locs,
		})
	}
	return set, nil
}

func (bld *builder) buildLiveness() (*region.LivenessValues, error) {
	live := region.NewLivenessValues()
	for i, ld := range bld.bundle.Live {
		if !bld.regionInRange(ld.Region) {
			return nil, schemaErrf(diag.BndBadRegion, "live %d: region %d out of range (%d regions)",
				i, ld.Region, bld.numRegions)
		}
		for _, raw := range ld.Points {
			at, err := bld.parseLocation(fmt.Sprintf("live %d", i), raw)
			if err != nil {
				return nil, err
			}
			live.Add(region.RegionID(ld.Region), at)
		}
	}
	return live, nil
}

// buildGroups converts the optional [[group]] partition. Absent groups
// return nil so NewInference derives them from the constraints.
func (bld *builder) buildGroups() (*region.Equivalence, error) {
	if len(bld.bundle.Groups) == 0 {
		return nil, nil
	}
	assign := make([]region.GroupID, bld.numRegions+1)
	for gi, gd := range bld.bundle.Groups {
		for _, n := range gd.Regions {
			if !bld.regionInRange(n) {
				return nil, schemaErrf(diag.BndBadGroup, "group %d: region %d out of range (%d regions)",
					gi, n, bld.numRegions)
			}
			r := region.RegionID(n)
			if assign[r].IsValid() {
				return nil, schemaErrf(diag.BndBadGroup, "group %d: region %d already in group %d",
					gi, n, int(assign[r])-1)
			}
			assign[r] = region.GroupID(gi + 1)
		}
	}
	for r := uint32(1); r <= bld.numRegions; r++ {
		if !assign[r].IsValid() {
			return nil, schemaErrf(diag.BndBadGroup, "region %d missing from groups", r)
		}
	}
	return region.FromGroups(assign), nil
}

func (bld *builder) buildViolations() ([]Violation, error) {
	out := make([]Violation, 0, len(bld.bundle.Violations))
	for i, vd := range bld.bundle.Violations {
		if !bld.regionInRange(vd.Fr) {
			return nil, schemaErrf(diag.BndBadViolation, "violation %d: fr %d out of range (%d regions)",
				i, vd.Fr, bld.numRegions)
		}
		if !bld.regionInRange(vd.Outlived) {
			return nil, schemaErrf(diag.BndBadViolation, "violation %d: outlived %d out of range (%d regions)",
				i, vd.Outlived, bld.numRegions)
		}
		if vd.Fr == vd.Outlived {
			return nil, schemaErrf(diag.BndBadViolation, "violation %d: fr equals outlived (%d)", i, vd.Fr)
		}
		out = append(out, Violation{
			Fr:         region.RegionID(vd.Fr),
			OutlivedFr: region.RegionID(vd.Outlived),
		})
	}
	return out, nil
}
