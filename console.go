package main

import (
	"strings"

	"dscheirer.com/shifttimer/bridge"
	"dscheirer.com/shifttimer/lcd"
	"dscheirer.com/shifttimer/sevenseg"
	"github.com/nsf/termbox-go"
)

// console draws the simulated panel and digit in the terminal. It redraws
// from the bridge's change hook, on the control goroutine.
type console struct {
	sim  *bridge.Sim
	addr uint8
	pins sevenseg.Pins

	drawn bool
	line0 string
	line1 string
	mask  byte
	light bool
}

func startConsole(sim *bridge.Sim, addr uint8, pins sevenseg.Pins) (func(), error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.HideCursor()

	c := &console{sim: sim, addr: addr, pins: pins}
	sim.OnChange = c.refresh
	c.refresh()

	return func() {
		sim.OnChange = nil
		termbox.Close()
	}, nil
}

// snapshot reads what the panel and segments show right now.
func (c *console) snapshot() (line0, line1 string, mask byte, light bool) {
	line0 = c.sim.Line(c.addr, 0, lcd.Width)
	line1 = c.sim.Line(c.addr, 1, lcd.Width)
	var p sevenseg.Pattern
	for i, pin := range c.pins {
		p[i] = c.sim.Level(pin)
	}
	_, light = c.sim.PanelOn(c.addr)
	return line0, line1, p.Mask(), light
}

func (c *console) refresh() {
	line0, line1, mask, light := c.snapshot()
	if c.drawn && line0 == c.line0 && line1 == c.line1 && mask == c.mask && light == c.light {
		return
	}
	c.drawn = true
	c.line0, c.line1, c.mask, c.light = line0, line1, mask, light
	c.draw()
}

func (c *console) draw() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	fg, bg := termbox.ColorDefault, termbox.ColorDefault
	if c.light {
		fg, bg = termbox.ColorBlack, termbox.ColorGreen
	}
	border := "+" + strings.Repeat("-", lcd.Width) + "+"
	drawText(0, 0, border, termbox.ColorDefault, termbox.ColorDefault)
	drawText(0, 1, "|", termbox.ColorDefault, termbox.ColorDefault)
	drawText(1, 1, lcd.Pad(c.line0, lcd.Width), fg, bg)
	drawText(lcd.Width+1, 1, "|", termbox.ColorDefault, termbox.ColorDefault)
	drawText(0, 2, "|", termbox.ColorDefault, termbox.ColorDefault)
	drawText(1, 2, lcd.Pad(c.line1, lcd.Width), fg, bg)
	drawText(lcd.Width+1, 2, "|", termbox.ColorDefault, termbox.ColorDefault)
	drawText(0, 3, border, termbox.ColorDefault, termbox.ColorDefault)

	for row, s := range sevenseg.Lines(c.mask) {
		drawText(lcd.Width+5, row, s, termbox.ColorRed|termbox.AttrBold, termbox.ColorDefault)
	}
	termbox.Flush()
}

func drawText(x, y int, s string, fg, bg termbox.Attribute) {
	for i, r := range s {
		termbox.SetCell(x+i, y, r, fg, bg)
	}
}
