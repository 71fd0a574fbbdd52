package region

import (
	"fmt"

	"tenure/internal/source"
)

// Location identifies one statement inside the lowered function body:
// a basic block index plus a statement index within that block. The
// block terminator sits one past the last statement.
type Location struct {
	Block     uint32
	Statement uint32
}

func (l Location) String() string {
	return fmt.Sprintf("bb%d[%d]", l.Block, l.Statement)
}

// ReturnInfo describes the declared return of the function when the
// checker needs to talk about it: whether it is an opaque type, whether
// that opaque type already carries a `'static` bound, and the span of
// the return annotation itself.
type ReturnInfo struct {
	Opaque         bool
	HasStaticBound bool
	Span           source.Span
}

// FuncInfo carries the identity of the body under analysis.
type FuncInfo struct {
	// Name is the plain function name, used in messages.
	Name string
	// Closure marks closure bodies; messages then say "closure body"
	// instead of "function body".
	Closure bool
	// Span covers the whole item, used as a fallback anchor.
	Span source.Span
	// Return is nil when the function has no interesting return
	// annotation.
	Return *ReturnInfo
}

// Body is the span side of the lowered function: enough structure to
// turn a Location back into source positions. Statement spans are laid
// out per block, with the terminator span stored one past the last
// statement.
type Body struct {
	Func   FuncInfo
	blocks [][]source.Span
}

// NewBody builds a body from per-block statement spans. The last span
// of each block is the terminator's.
func NewBody(fn FuncInfo, blocks [][]source.Span) *Body {
	return &Body{Func: fn, blocks: blocks}
}

// Blocks reports the number of basic blocks.
func (b *Body) Blocks() int { return len(b.blocks) }

// SpanAt resolves a location to its source span. Out-of-range indexes
// clamp to the nearest statement so a stale location still points into
// the right neighborhood instead of panicking.
func (b *Body) SpanAt(at Location) source.Span {
	if len(b.blocks) == 0 {
		return b.Func.Span
	}
	block := int(at.Block)
	if block >= len(b.blocks) {
		block = len(b.blocks) - 1
	}
	stmts := b.blocks[block]
	if len(stmts) == 0 {
		return b.Func.Span
	}
	stmt := int(at.Statement)
	if stmt >= len(stmts) {
		stmt = len(stmts) - 1
	}
	return stmts[stmt]
}
