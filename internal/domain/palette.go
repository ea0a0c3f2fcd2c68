package domain

// Palette is the bounded set of user colors; one per seat, recycled on leave.
var Palette = []string{
	"#e4572e",
	"#29b6a8",
	"#f3a712",
	"#7768ae",
	"#4c9f70",
	"#d1495b",
	"#3d7dd8",
	"#b5651d",
}

// ColorPool hands out palette colors in order and recycles returned ones
// first, so rejoining users tend to get familiar colors back.
type ColorPool struct {
	free []string
	next int
}

func NewColorPool() *ColorPool {
	return &ColorPool{}
}

// Acquire returns the next available color, falling back to the first
// palette entry if every color is out (more seats than palette entries).
func (p *ColorPool) Acquire() string {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		return c
	}
	if p.next < len(Palette) {
		c := Palette[p.next]
		p.next++
		return c
	}
	return Palette[0]
}

func (p *ColorPool) Release(color string) {
	if color == "" {
		return
	}
	p.free = append(p.free, color)
}

// MarkUsed advances the pool past colors already assigned, used when a room
// is rebuilt from a snapshot. Callers may mark in any order: a color that an
// earlier call already pushed onto the free list is pulled back off it so the
// pool never re-issues a color that is in use.
func (p *ColorPool) MarkUsed(color string) {
	for i, c := range Palette {
		if c != color {
			continue
		}
		if i < p.next {
			for j, f := range p.free {
				if f == color {
					p.free = append(p.free[:j], p.free[j+1:]...)
					return
				}
			}
			return
		}
		// pull forward everything skipped so it stays assignable
		for j := p.next; j < i; j++ {
			p.free = append(p.free, Palette[j])
		}
		p.next = i + 1
		return
	}
}
