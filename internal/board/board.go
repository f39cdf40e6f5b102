// Package board holds the client-side state of a code assembler puzzle: the
// pool of unplaced blocks, the ordered workspace slots, and the submission
// lifecycle.
//
// A Board is safe for concurrent use. Every placement is applied atomically;
// Submit releases the lock while the validator call is in flight so the
// board stays interactive.
package board

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/algobytes/assembler/internal/algobytes"
)

var (
	ErrIncomplete     = errors.New("board: every slot must be filled before submitting")
	ErrSubmitInFlight = errors.New("board: a submission is already in flight")
	ErrAlreadySolved  = errors.New("board: puzzle already solved")
)

// Validator checks a submission for a challenge. The API client implements it.
type Validator interface {
	Validate(ctx context.Context, challengeID string, sub algobytes.Submission) (algobytes.Verdict, error)
}

// Feedback is the verdict currently displayed on the board.
type Feedback struct {
	Correct bool
	Details []bool
}

// Target is where a dragged block is released.
type Target struct {
	kind targetKind
	slot int
}

type targetKind int

const (
	targetNowhere targetKind = iota
	targetPool
	targetSlot
)

var (
	// Nowhere is a release outside every drop zone.
	Nowhere = Target{kind: targetNowhere}
	// PoolArea is a release over the pool.
	PoolArea = Target{kind: targetPool}
)

// Slot targets workspace slot i.
func Slot(i int) Target { return Target{kind: targetSlot, slot: i} }

func (t Target) String() string {
	switch t.kind {
	case targetPool:
		return "pool"
	case targetSlot:
		return fmt.Sprintf("slot-%d", t.slot)
	default:
		return "nowhere"
	}
}

type Option func(*Board)

// WithShuffle replaces the pool shuffle, mainly for deterministic tests.
func WithShuffle(fn func([]algobytes.CodeBlock)) Option {
	return func(b *Board) { b.shuffle = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// OnSolved registers a hook fired after a correct verdict is applied.
func OnSolved(fn func(algobytes.Verdict)) Option {
	return func(b *Board) { b.onSolved = fn }
}

// WithStreak sets the streak shown in share text until a verdict reports a
// newer one.
func WithStreak(n int) Option {
	return func(b *Board) { b.streak = n }
}

type Board struct {
	mu sync.Mutex

	challenge   algobytes.Challenge
	pool        []algobytes.CodeBlock
	slots       []*algobytes.CodeBlock
	indentation []int
	feedback    *Feedback

	// revision increments on every state change; a verdict is only applied
	// when the board has not changed since the submission snapshot.
	revision   uint64
	submitting bool
	attempts   []string
	lastTime   int
	streak     int

	started  time.Time
	now      func() time.Time
	shuffle  func([]algobytes.CodeBlock)
	onSolved func(algobytes.Verdict)
}

// New builds a board for c. completed restores the solved arrangement of a
// challenge the user already finished.
func New(c algobytes.Challenge, completed bool, opts ...Option) *Board {
	b := &Board{
		challenge: c,
		now:       time.Now,
		shuffle: func(blocks []algobytes.CodeBlock) {
			rand.Shuffle(len(blocks), func(i, j int) { blocks[i], blocks[j] = blocks[j], blocks[i] })
		},
	}
	for _, o := range opts {
		o(b)
	}
	b.started = b.now()
	b.indentation = c.Data.SlotIndentation()

	if completed {
		b.layoutSolved()
	} else {
		b.layoutFresh()
	}
	return b
}

func (b *Board) layoutFresh() {
	d := b.challenge.Data
	b.slots = make([]*algobytes.CodeBlock, d.TotalSlots)

	var movable []algobytes.CodeBlock
	for _, blk := range d.CodeBlocks {
		if blk.IsBoilerplate {
			if pos, ok := blk.Position(); ok && pos >= 0 && pos < d.TotalSlots {
				pinned := blk
				b.slots[pos] = &pinned
			}
			continue
		}
		movable = append(movable, blk)
	}
	movable = append(movable, d.DecoyBlocks...)
	b.shuffle(movable)
	b.pool = movable
	b.feedback = nil
}

func (b *Board) layoutSolved() {
	d := b.challenge.Data
	b.slots = make([]*algobytes.CodeBlock, d.TotalSlots)
	used := make(map[string]bool)

	for _, blk := range d.CodeBlocks {
		if pos, ok := blk.Position(); ok && pos >= 0 && pos < d.TotalSlots {
			placed := blk
			b.slots[pos] = &placed
			used[blk.ID] = true
		}
	}

	var rest []algobytes.CodeBlock
	for _, blk := range d.CodeBlocks {
		if !used[blk.ID] && !blk.IsBoilerplate {
			rest = append(rest, blk)
		}
	}
	rest = append(rest, d.DecoyBlocks...)
	b.shuffle(rest)
	b.pool = rest
	b.feedback = &Feedback{Correct: true}
}

// Challenge returns the challenge the board was built from.
func (b *Board) Challenge() algobytes.Challenge { return b.challenge }

// Pool returns the unplaced blocks in display order.
func (b *Board) Pool() []algobytes.CodeBlock {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.pool)
}

// Slots returns a copy of the workspace; nil entries are empty slots.
func (b *Board) Slots() []*algobytes.CodeBlock {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*algobytes.CodeBlock, len(b.slots))
	for i, s := range b.slots {
		if s != nil {
			c := *s
			out[i] = &c
		}
	}
	return out
}

// Indentation returns the rendering indentation of every slot.
func (b *Board) Indentation() []int { return slices.Clone(b.indentation) }

// Feedback returns the displayed verdict, or nil when there is none.
func (b *Board) Feedback() *Feedback {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.feedback == nil {
		return nil
	}
	f := *b.feedback
	f.Details = slices.Clone(f.Details)
	return &f
}

// Submitting reports whether a submission is in flight.
func (b *Board) Submitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitting
}

// CanDrag reports whether id may start a drag. Boilerplate and unknown blocks
// cannot.
func (b *Board) CanDrag(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.poolIndex(id) >= 0 {
		return true
	}
	i := b.slotIndex(id)
	return i >= 0 && !b.slots[i].IsBoilerplate
}

// Drop releases block id over target.
func (b *Board) Drop(id string, target Target) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pi := b.poolIndex(id); pi >= 0 {
		if target.kind != targetSlot || !b.acceptsDrop(target.slot) {
			return
		}
		blk := b.pool[pi]
		b.pool = slices.Delete(b.pool, pi, pi+1)
		b.bump(target.slot)
		b.slots[target.slot] = &blk
		b.changed()
		return
	}

	si := b.slotIndex(id)
	if si < 0 || b.slots[si].IsBoilerplate {
		return
	}

	switch target.kind {
	case targetSlot:
		if target.slot == si || !b.acceptsDrop(target.slot) {
			return
		}
		blk := b.slots[si]
		b.slots[si] = nil
		b.bump(target.slot)
		b.slots[target.slot] = blk
	default:
		b.pool = append(b.pool, *b.slots[si])
		b.slots[si] = nil
	}
	b.changed()
}

// Click toggles block id between the pool and the first empty slot.
func (b *Board) Click(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if si := b.slotIndex(id); si >= 0 {
		if b.slots[si].IsBoilerplate {
			return
		}
		b.pool = append(b.pool, *b.slots[si])
		b.slots[si] = nil
		b.changed()
		return
	}

	pi := b.poolIndex(id)
	if pi < 0 {
		return
	}
	empty := slices.IndexFunc(b.slots, isEmpty)
	if empty < 0 {
		return
	}
	blk := b.pool[pi]
	b.pool = slices.Delete(b.pool, pi, pi+1)
	b.slots[empty] = &blk
	b.changed()
}

// Reset discards every placement and reshuffles the pool, even for a
// completed challenge. The elapsed-time baseline is kept.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.layoutFresh()
	b.revision++
}

// Ready reports whether Submit would send a request right now.
func (b *Board) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.submitting && !b.solved() && b.full()
}

// Elapsed is the whole seconds since the board was created.
func (b *Board) Elapsed() int {
	return int(b.now().Sub(b.started) / time.Second)
}

// Submit sends the current arrangement to v. Transport and server errors are
// returned unchanged and leave the board as it was.
func (b *Board) Submit(ctx context.Context, v Validator) (algobytes.Verdict, error) {
	b.mu.Lock()
	switch {
	case b.solved():
		b.mu.Unlock()
		return algobytes.Verdict{}, ErrAlreadySolved
	case b.submitting:
		b.mu.Unlock()
		return algobytes.Verdict{}, ErrSubmitInFlight
	case !b.full():
		b.mu.Unlock()
		return algobytes.Verdict{}, ErrIncomplete
	}

	solution := make([]string, len(b.slots))
	for i, s := range b.slots {
		solution[i] = s.ID
	}
	elapsed := b.Elapsed()
	sub := algobytes.Submission{
		Solution:       solution,
		TimeTaken:      &elapsed,
		AttemptHistory: slices.Clone(b.attempts),
	}
	rev := b.revision
	b.submitting = true
	b.mu.Unlock()

	verdict, err := v.Validate(ctx, b.challenge.ID, sub)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitting = false
	if err != nil {
		return algobytes.Verdict{}, err
	}

	if verdict.NewStreak != nil {
		b.streak = *verdict.NewStreak
	}
	if rev != b.revision {
		return verdict, nil
	}

	b.feedback = &Feedback{Correct: verdict.Correct, Details: slices.Clone(verdict.Results)}
	b.attempts = append(b.attempts, verdict.EmojiGrid)
	if verdict.Correct {
		b.lastTime = elapsed
		if b.onSolved != nil {
			b.onSolved(verdict)
		}
	}
	return verdict, nil
}

// History returns the emoji lines of every graded attempt this session.
func (b *Board) History() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.attempts)
}

// ShareText renders the clipboard summary of a solved puzzle. It returns ""
// while the puzzle is unsolved.
func (b *Board) ShareText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.solved() {
		return ""
	}

	elapsed := b.lastTime
	if elapsed == 0 {
		elapsed = b.Elapsed()
	}

	var sb strings.Builder
	if b.challenge.IsDaily {
		sb.WriteString("AlgoBytes Daily ")
	} else {
		sb.WriteString("AlgoBytes ")
	}
	sb.WriteString(b.now().Format(algobytes.DateLayout))
	sb.WriteString("\n")
	sb.WriteString(b.challenge.Title)
	fmt.Fprintf(&sb, "\n⏱️ %ds\n", elapsed)
	if b.streak > 0 {
		fmt.Fprintf(&sb, "🔥 %d day streak\n", b.streak)
	}
	sb.WriteString("✅ Solved!")
	if len(b.attempts) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(strings.Join(b.attempts, "\n"))
	}
	return sb.String()
}

// Callers hold b.mu for everything below.

func (b *Board) solved() bool { return b.feedback != nil && b.feedback.Correct }

func (b *Board) full() bool { return !slices.ContainsFunc(b.slots, isEmpty) }

func isEmpty(c *algobytes.CodeBlock) bool { return c == nil }

func (b *Board) changed() {
	b.feedback = nil
	b.revision++
}

func (b *Board) acceptsDrop(slot int) bool {
	if slot < 0 || slot >= len(b.slots) {
		return false
	}
	return b.slots[slot] == nil || !b.slots[slot].IsBoilerplate
}

// bump returns the occupant of slot, if any, to the pool.
func (b *Board) bump(slot int) {
	if occ := b.slots[slot]; occ != nil {
		b.pool = append(b.pool, *occ)
		b.slots[slot] = nil
	}
}

func (b *Board) poolIndex(id string) int {
	return slices.IndexFunc(b.pool, func(c algobytes.CodeBlock) bool { return c.ID == id })
}

func (b *Board) slotIndex(id string) int {
	return slices.IndexFunc(b.slots, func(c *algobytes.CodeBlock) bool { return c != nil && c.ID == id })
}
