// Package diff computes structural diffs between two content snapshots.
//
// The engine tokenizes both texts into the deployment's comparison unit (words or
// characters), aligns the token sequences with Myers' O(N·D) algorithm and coalesces the
// resulting edit script into a sequence of add/delete/neutral blocks.
//
// Concatenating the neutral and add blocks reproduces the newer text; concatenating the
// neutral and delete blocks reproduces the older text. The engine holds no mutable state
// and is safe for concurrent use.
package diff

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the type of a diff block.
type Kind string

const (
	KindAdd     Kind = "add"
	KindDelete  Kind = "delete"
	KindNeutral Kind = "neutral"
)

// Block is a maximal run of tokens sharing the same edit kind.
type Block struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Blocks is an ordered diff block sequence.
type Blocks []Block

// Old reconstructs the older text (neutral + delete blocks).
func (b Blocks) Old() string {
	return b.join(KindDelete)
}

// New reconstructs the newer text (neutral + add blocks).
func (b Blocks) New() string {
	return b.join(KindAdd)
}

func (b Blocks) join(side Kind) string {
	var sb strings.Builder
	for _, blk := range b {
		if blk.Kind == KindNeutral || blk.Kind == side {
			sb.WriteString(blk.Text)
		}
	}
	return sb.String()
}

// Mirror swaps add and delete blocks, turning diff(a, b) into a valid diff(b, a).
// Within each change run, deletions are kept ahead of insertions.
func (b Blocks) Mirror() Blocks {
	out := make(Blocks, 0, len(b))
	var adds, dels []Block
	flush := func() {
		out = append(out, dels...)
		out = append(out, adds...)
		adds, dels = adds[:0], dels[:0]
	}
	for _, blk := range b {
		switch blk.Kind {
		case KindAdd:
			dels = append(dels, Block{Kind: KindDelete, Text: blk.Text})
		case KindDelete:
			adds = append(adds, Block{Kind: KindAdd, Text: blk.Text})
		default:
			flush()
			out = append(out, blk)
		}
	}
	flush()
	return out
}

// Unit is the comparison unit used for tokenizing and for add/delete counts.
type Unit string

const (
	UnitWord Unit = "word"
	UnitChar Unit = "char"
)

// ParseUnit validates a unit name.
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitWord, "":
		return UnitWord, nil
	case UnitChar:
		return UnitChar, nil
	default:
		return "", fmt.Errorf("unknown diff unit %q (supported: word, char)", s)
	}
}

// Default limits.
const (
	DefaultMaxTokens       = 400_000
	DefaultMaxEditDistance = 2_000
)

// Options configures an Engine.
type Options struct {
	// Unit selects word or character comparison.
	Unit Unit

	// MaxTokens caps the combined token count of both inputs. Larger inputs fail with
	// ErrTooLarge instead of being aligned. Zero means DefaultMaxTokens.
	MaxTokens int

	// MaxEditDistance bounds the Myers search. When the minimal edit script is longer,
	// the unmatched middle section is emitted as one deletion followed by one insertion
	// and the result is flagged Approximate. Zero means DefaultMaxEditDistance.
	MaxEditDistance int
}

// DefaultOptions returns word-unit options with default limits.
func DefaultOptions() Options {
	return Options{
		Unit:            UnitWord,
		MaxTokens:       DefaultMaxTokens,
		MaxEditDistance: DefaultMaxEditDistance,
	}
}

func (o Options) withDefaults() Options {
	if o.Unit == "" {
		o.Unit = UnitWord
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.MaxEditDistance <= 0 {
		o.MaxEditDistance = DefaultMaxEditDistance
	}
	return o
}

// ErrTooLarge is returned when the inputs exceed Options.MaxTokens.
var ErrTooLarge = errors.New("diff input too large")

// LimitError carries the token counts behind an ErrTooLarge failure.
type LimitError struct {
	Tokens int
	Limit  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("diff input has %d tokens, limit is %d", e.Tokens, e.Limit)
}

func (e *LimitError) Is(target error) bool { return target == ErrTooLarge }

// Result is the outcome of a diff computation.
type Result struct {
	Added       int    `json:"added_count"`
	Deleted     int    `json:"deleted_count"`
	Blocks      Blocks `json:"blocks"`
	Approximate bool   `json:"approximate,omitempty"`
}

// Engine computes diffs with fixed options.
type Engine struct {
	opts Options
}

// New creates an Engine. Unset option fields take their defaults.
func New(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Compute diffs with the default options.
func Compute(oldText, newText string) (*Result, error) {
	return New(DefaultOptions()).Compute(oldText, newText)
}

// Compute returns the diff between oldText and newText. Compute(b, a) always
// equals Compute(a, b) with the counts swapped and the blocks mirrored.
func (e *Engine) Compute(oldText, newText string) (*Result, error) {
	if oldText == newText {
		return &Result{Blocks: Blocks{{Kind: KindNeutral, Text: oldText}}}, nil
	}

	oldToks := tokenize(oldText, e.opts.Unit)
	newToks := tokenize(newText, e.opts.Unit)
	if total := len(oldToks) + len(newToks); total > e.opts.MaxTokens {
		return nil, &LimitError{Tokens: total, Limit: e.opts.MaxTokens}
	}

	a, b := intern(oldToks, newToks)

	// Alignment always runs with the lesser text first, so swapping the inputs
	// yields exactly the mirrored script.
	var script []op
	var exact bool
	if oldText <= newText {
		script, exact = align(a, b, e.opts.MaxEditDistance)
	} else {
		script, exact = align(b, a, e.opts.MaxEditDistance)
		script = swapSides(script)
	}

	res := &Result{Approximate: !exact}
	for _, o := range script {
		switch o.kind {
		case opDelete:
			if oldToks[o.ai].counted {
				res.Deleted++
			}
		case opInsert:
			if newToks[o.bi].counted {
				res.Added++
			}
		}
	}
	res.Blocks = coalesce(script, oldToks, newToks)
	return res, nil
}

// coalesce merges consecutive same-kind ops into blocks.
func coalesce(script []op, oldToks, newToks []token) Blocks {
	var blocks Blocks
	var sb strings.Builder
	cur := Kind("")

	emit := func() {
		if cur != "" {
			blocks = append(blocks, Block{Kind: cur, Text: sb.String()})
		}
		sb.Reset()
	}

	for _, o := range script {
		var k Kind
		var text string
		switch o.kind {
		case opEqual:
			k, text = KindNeutral, oldToks[o.ai].text
		case opDelete:
			k, text = KindDelete, oldToks[o.ai].text
		case opInsert:
			k, text = KindAdd, newToks[o.bi].text
		}
		if k != cur {
			emit()
			cur = k
		}
		sb.WriteString(text)
	}
	emit()
	return blocks
}
