package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// terminalProgress draws a one-line progress counter. The load goroutine
// and the foreground both call into it, so every method locks.
type terminalProgress struct {
	mu       sync.Mutex
	w        io.Writer
	title    string
	message  string
	total    int
	value    int
	lastDraw time.Time
	drawn    bool
}

// redrawInterval limits how often the counter line is rewritten.
const redrawInterval = 100 * time.Millisecond

func newTerminalProgress(w io.Writer, title string) *terminalProgress {
	return &terminalProgress{w: w, title: title}
}

func (p *terminalProgress) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.draw(true)
}

func (p *terminalProgress) SetValue(value int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = value
	p.draw(value == p.total)
}

func (p *terminalProgress) SetMessage(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.message = message
	p.draw(true)
}

func (p *terminalProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}

func (p *terminalProgress) draw(force bool) {
	now := time.Now()
	if !force && now.Sub(p.lastDraw) < redrawInterval {
		return
	}
	p.lastDraw = now
	p.drawn = true

	if p.total > 0 {
		fmt.Fprintf(p.w, "\r%s: %s %d/%d\x1b[K", p.title, p.message, p.value, p.total)
		return
	}
	fmt.Fprintf(p.w, "\r%s: %s\x1b[K", p.title, p.message)
}
