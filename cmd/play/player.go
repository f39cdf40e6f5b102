package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/algobytes/assembler/internal/algobytes"
	"github.com/algobytes/assembler/internal/board"
)

const help = `commands:
  show                  redraw the board
  click <id>            move a block between the pool and the first empty slot
  drop <id> <n|pool>    drop a block on slot n or back on the pool
  reset                 clear the workspace and reshuffle
  hint                  show the next hint
  submit                check the solution
  share                 print the share text of a solved puzzle
  quit`

type player struct {
	b    *board.Board
	v    board.Validator
	out  io.Writer
	hint int
}

// exec runs one command line and reports whether the session should end.
func (p *player) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit", "q":
		return true
	case "show":
		p.show()
	case "click":
		if len(args) != 1 {
			fmt.Fprintln(p.out, "usage: click <id>")
			return false
		}
		p.b.Click(args[0])
		p.show()
	case "drop":
		if len(args) != 2 {
			fmt.Fprintln(p.out, "usage: drop <id> <n|pool>")
			return false
		}
		p.b.Drop(args[0], parseTarget(args[1]))
		p.show()
	case "reset":
		p.b.Reset()
		p.show()
	case "hint":
		hints := p.b.Challenge().Data.Hints
		if len(hints) == 0 {
			fmt.Fprintln(p.out, "no hints for this one")
			return false
		}
		fmt.Fprintf(p.out, "hint %d/%d: %s\n", p.hint%len(hints)+1, len(hints), hints[p.hint%len(hints)])
		p.hint++
	case "submit":
		p.submit(ctx)
	case "share":
		text := p.b.ShareText()
		if text == "" {
			fmt.Fprintln(p.out, "solve the puzzle first")
			return false
		}
		fmt.Fprintln(p.out, text)
	default:
		fmt.Fprintln(p.out, help)
	}
	return false
}

func (p *player) submit(ctx context.Context) {
	v, err := p.b.Submit(ctx, p.v)
	switch {
	case errors.Is(err, board.ErrIncomplete):
		fmt.Fprintln(p.out, "fill every slot first")
		return
	case errors.Is(err, board.ErrAlreadySolved):
		fmt.Fprintln(p.out, "already solved, try share")
		return
	case err != nil:
		fmt.Fprintf(p.out, "submit failed: %v\n", err)
		return
	}

	p.show()
	fmt.Fprintln(p.out, v.Message)
	if v.Correct && v.NewStreak != nil {
		fmt.Fprintf(p.out, "streak: %d\n", *v.NewStreak)
	}
}

func parseTarget(s string) board.Target {
	if s == "pool" {
		return board.PoolArea
	}
	if n, err := strconv.Atoi(s); err == nil {
		return board.Slot(n)
	}
	return board.Nowhere
}

func (p *player) show() {
	c := p.b.Challenge()
	fmt.Fprintf(p.out, "\n%s (%s, %s)\n", c.Title, c.Difficulty, c.AlgorithmCategory)
	if c.Data.ProblemStatement != "" {
		fmt.Fprintln(p.out, c.Data.ProblemStatement)
	}
	fmt.Fprintln(p.out)

	var details []bool
	if f := p.b.Feedback(); f != nil {
		details = f.Details
	}
	indent := p.b.Indentation()
	for i, blk := range p.b.Slots() {
		mark := " "
		if i < len(details) {
			mark = algobytes.GlyphFail
			if details[i] {
				mark = algobytes.GlyphPass
			}
		}
		code := "________"
		if blk != nil {
			code = blk.Code
			if !blk.IsBoilerplate {
				code += "  [" + blk.ID + "]"
			}
		}
		fmt.Fprintf(p.out, "%s %2d | %s%s\n", mark, i, strings.Repeat("    ", indent[i]), code)
	}

	pool := p.b.Pool()
	if len(pool) == 0 {
		return
	}
	fmt.Fprintln(p.out, "\npool:")
	for _, blk := range pool {
		fmt.Fprintf(p.out, "  %-16s %s\n", blk.ID, blk.Code)
	}
}
