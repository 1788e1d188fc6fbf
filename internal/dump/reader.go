// Package dump extracts monthly city temperatures from a SQL text dump.
//
// The dump is scanned line by line without a SQL parser. A small state
// machine looks for the first statement accepted by [Rules.StatementStart],
// scans every line up to and including the first one accepted by
// [Rules.StatementEnd], and then stops reading. A second insert block for the
// same table is never consumed.
package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/temperature-dispersion/internal/domain"
)

// CityLookup resolves the province of a city.
type CityLookup interface {
	Province(city string) (string, bool)
}

type state int

const (
	seeking state = iota
	buffering
	done
)

// Reader streams joined observations out of a dump. It is forward-only: once
// Next returns false the stream is exhausted and cannot be restarted.
type Reader struct {
	src     *bufio.Reader
	closer  io.Closer
	lookup  CityLookup
	rules   Rules
	state   state
	pending []domain.Observation
	current domain.Observation
	err     error
	emitted int
	skipped int
}

// Open starts a Reader over the dump file at path. The file is closed as soon
// as the target statement has been consumed, at end of input, or by Close.
func Open(path string, lookup CityLookup, rules Rules) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	r := NewReader(f, lookup, rules)
	r.closer = f
	return r, nil
}

// NewReader starts a Reader over r. A nil rules value uses
// InsertRules{Table: DefaultTable}.
func NewReader(r io.Reader, lookup CityLookup, rules Rules) *Reader {
	if rules == nil {
		rules = InsertRules{Table: DefaultTable}
	}
	return &Reader{
		src:    bufio.NewReader(r),
		lookup: lookup,
		rules:  rules,
	}
}

// Next advances to the next observation whose city is known to the lookup.
func (r *Reader) Next() bool {
	for len(r.pending) == 0 {
		if r.state == done {
			return false
		}
		r.advance()
	}
	r.current = r.pending[0]
	r.pending = r.pending[1:]
	r.emitted++
	return true
}

// Observation returns the observation produced by the last call to Next.
func (r *Reader) Observation() domain.Observation {
	return r.current
}

// Err returns the first read error, if any. Reaching end of input without
// finding the statement is not an error.
func (r *Reader) Err() error {
	return r.err
}

// Emitted reports how many observations Next has produced so far.
func (r *Reader) Emitted() int { return r.emitted }

// Skipped reports how many tuples were dropped because their city is unknown.
func (r *Reader) Skipped() int { return r.skipped }

// Close releases the underlying file. It is safe to call more than once.
func (r *Reader) Close() error {
	r.state = done
	r.pending = nil
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// advance reads one line and feeds it through the state machine.
func (r *Reader) advance() {
	line, err := r.src.ReadString('\n')
	if line != "" {
		r.consume(line)
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.err = fmt.Errorf("read dump: %w", err)
		}
		r.finish()
		return
	}
	if r.state == done {
		r.finish()
	}
}

func (r *Reader) consume(line string) {
	switch r.state {
	case seeking:
		if !r.rules.StatementStart(line) {
			return
		}
		r.state = buffering
		r.collect(line)
	case buffering:
		r.collect(line)
	case done:
	}
}

// collect turns the tuples of a statement line into observations and moves to
// done once the terminator shows up.
func (r *Reader) collect(line string) {
	for _, t := range r.rules.Tuples(line) {
		province, ok := r.lookup.Province(t.City)
		if !ok {
			r.skipped++
			continue
		}
		r.pending = append(r.pending, domain.Observation{
			Province: province,
			City:     t.City,
			Month:    t.Month,
			Value:    t.Value,
		})
	}
	if r.rules.StatementEnd(line) {
		r.state = done
	}
}

func (r *Reader) finish() {
	r.state = done
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = fmt.Errorf("close dump: %w", err)
		}
		r.closer = nil
	}
}
