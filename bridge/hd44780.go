package bridge

// PCF8574 backpack wiring: P0=RS, P1=RW (tied low), P2=EN, P3=backlight,
// P4..P7=D4..D7.
const (
	expanderRS        = 0x01
	expanderEnable    = 0x04
	expanderBacklight = 0x08
)

const ddramSize = 0x80

// hd44780 models the character controller behind an I2C expander, enough
// to recover what a 16x2 panel shows from the raw expander bytes.
type hd44780 struct {
	ddram     [ddramSize]byte
	addr      byte
	fourBit   bool
	haveHigh  bool
	high      byte
	displayOn bool
	backlight bool
	prev      byte
	prevEN    bool
	clears    int
}

func newHD44780() *hd44780 {
	m := &hd44780{}
	m.blank()
	return m
}

func (m *hd44780) blank() {
	for i := range m.ddram {
		m.ddram[i] = ' '
	}
	m.addr = 0
}

// write feeds one expander byte. Data lines are latched on the falling
// edge of EN.
func (m *hd44780) write(b byte) {
	m.backlight = b&expanderBacklight != 0
	en := b&expanderEnable != 0
	if m.prevEN && !en {
		m.latch(m.prev)
	}
	m.prevEN = en
	m.prev = b
}

func (m *hd44780) latch(b byte) {
	rs := b&expanderRS != 0
	nibble := b >> 4
	if !m.fourBit {
		// only D4..D7 are wired, the low data lines read as zero
		m.exec(rs, nibble<<4)
		return
	}
	if !m.haveHigh {
		m.high = nibble
		m.haveHigh = true
		return
	}
	m.haveHigh = false
	m.exec(rs, m.high<<4|nibble)
}

func (m *hd44780) exec(rs bool, v byte) {
	if rs {
		m.ddram[m.addr] = v
		m.advance()
		return
	}
	switch {
	case v&0x80 != 0:
		m.addr = v & 0x7F
	case v&0x40 != 0:
		// CGRAM address, not modelled
	case v&0x20 != 0:
		m.fourBit = v&0x10 == 0
		m.haveHigh = false
	case v&0x10 != 0:
		// cursor/display shift, not modelled
	case v&0x08 != 0:
		m.displayOn = v&0x04 != 0
	case v&0x04 != 0:
		// entry mode, increment assumed
	case v&0x02 != 0:
		m.addr = 0
	case v == 0x01:
		m.blank()
		m.clears++
	}
}

// advance moves the address counter the way the two-line layout does:
// 0x27 wraps to 0x40 and 0x67 wraps to 0x00.
func (m *hd44780) advance() {
	switch m.addr {
	case 0x27:
		m.addr = 0x40
	case 0x67:
		m.addr = 0x00
	default:
		m.addr = (m.addr + 1) % ddramSize
	}
}

func (m *hd44780) line(row, width int) string {
	start := 0x00
	if row > 0 {
		start = 0x40
	}
	return string(m.ddram[start : start+width])
}
