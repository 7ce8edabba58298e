// Package diag parses the board's serial log: three-axis readings printed
// by the demo variants and the periodic processing load report.
package diag

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Axis flags which fields of a Reading were present on the line.
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY
	AxisZ

	AllAxes = AxisX | AxisY | AxisZ
)

// Event is one of Reading, LoadReport, Overruns or Text.
type Event interface {
	Time() time.Time
}

// Reading is an "X: a, Y: b, Z: c" line. Axes missing from the line
// are zero and clear in Present.
type Reading struct {
	At      time.Time
	X, Y, Z float64
	Present Axis
}

// LoadReport is one "Processing Load:" block, in percent.
type LoadReport struct {
	At            time.Time
	Max, Avg, Min float64
}

// Overruns is the count line that follows a load report when blocks
// missed their deadline.
type Overruns struct {
	At    time.Time
	Count int
}

// Text is any other log line.
type Text struct {
	At   time.Time
	Line string
}

func (r Reading) Time() time.Time    { return r.At }
func (r LoadReport) Time() time.Time { return r.At }
func (o Overruns) Time() time.Time   { return o.At }
func (t Text) Time() time.Time       { return t.At }

var axisRe = [3]*regexp.Regexp{
	regexp.MustCompile(`X:\s*([-.\d]+)`),
	regexp.MustCompile(`Y:\s*([-.\d]+)`),
	regexp.MustCompile(`Z:\s*([-.\d]+)`),
}

// ParseReading extracts whichever axes appear on line. ok is false when
// none do.
func ParseReading(line string) (r Reading, ok bool) {
	dst := [3]*float64{&r.X, &r.Y, &r.Z}
	for i, re := range axisRe {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		*dst[i] = v
		r.Present |= Axis(1) << i
	}
	return r, r.Present != 0
}

const loadHeader = "Processing Load:"

// Parser turns log lines into events. It keeps the partial load report
// between lines.
type Parser struct {
	inReport bool
	report   LoadReport
	seen     int // percent lines of the current report
}

// Feed consumes one line. ok is false for blank lines and for lines that
// are part of an unfinished load report.
func (p *Parser) Feed(line string, at time.Time) (ev Event, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	if line == loadHeader {
		p.inReport = true
		p.report = LoadReport{At: at}
		p.seen = 0
		return nil, false
	}

	if p.inReport {
		if name, v, found := percentLine(line); found {
			switch name {
			case "Max":
				p.report.Max = v
			case "Avg":
				p.report.Avg = v
			case "Min":
				p.report.Min = v
			}
			p.seen++
			if p.seen == 3 {
				p.inReport = false
				return p.report, true
			}
			return nil, false
		}
		p.inReport = false // truncated report
	}

	if rest, found := strings.CutPrefix(line, "Overruns: "); found {
		if n, err := strconv.Atoi(rest); err == nil {
			return Overruns{At: at, Count: n}, true
		}
	}
	if r, found := ParseReading(line); found {
		r.At = at
		return r, true
	}
	return Text{At: at, Line: line}, true
}

// percentLine parses "Name: 12.345%".
func percentLine(line string) (name string, v float64, ok bool) {
	name, rest, found := strings.Cut(line, ": ")
	if !found || !strings.HasSuffix(rest, "%") {
		return "", 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(rest, "%"), 64)
	if err != nil {
		return "", 0, false
	}
	return name, v, true
}

// Reader reads events from a serial stream.
type Reader struct {
	sc     *bufio.Scanner
	parser Parser
	now    func() time.Time
}

// NewReader reads lines ending in "\n" or "\r\n" from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r), now: time.Now}
}

// Next returns the next event. At the end of the stream it returns
// io.EOF, or the error that ended it.
func (r *Reader) Next() (Event, error) {
	for r.sc.Scan() {
		if ev, ok := r.parser.Feed(r.sc.Text(), r.now()); ok {
			return ev, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
