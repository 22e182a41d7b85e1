package mock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// DefaultPatternTimeout bounds regex-driven string generation.
const DefaultPatternTimeout = 250 * time.Millisecond

// ErrPatternTimeout is returned when a pattern does not produce a value in
// time.
var ErrPatternTimeout = errors.New("pattern generation timed out")

// Provider supplies every random choice the generator makes.
type Provider interface {
	// Pattern returns a string matching the regular expression p.
	Pattern(p string) (string, error)
	// Alphanumeric returns a string of [A-Za-z0-9] with length in [minLen, maxLen].
	Alphanumeric(minLen, maxLen int) string
	// Int returns an integer in [lo, hi].
	Int(lo, hi int) int
	// Float returns a float in [lo, hi].
	Float(lo, hi float64) float64
	Bool() bool
	Pick(values []any) any
	Email() string
	UUID() string
	Date() time.Time
	URI() string
	Word() string
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// FakerProvider is a Provider backed by gofakeit. It is not safe for
// concurrent use.
type FakerProvider struct {
	faker          *gofakeit.Faker
	patternTimeout time.Duration
}

// NewFakerProvider returns a provider seeded with seed. A seed of 0 picks a
// random seed.
func NewFakerProvider(seed uint64, patternTimeout time.Duration) *FakerProvider {
	if patternTimeout <= 0 {
		patternTimeout = DefaultPatternTimeout
	}
	return &FakerProvider{
		faker:          gofakeit.New(seed),
		patternTimeout: patternTimeout,
	}
}

func (p *FakerProvider) Pattern(pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("compiling pattern: %w", err)
	}

	// The child faker keeps the parent's sequence untouched by a
	// generation that is abandoned on timeout.
	child := gofakeit.New(p.faker.Uint64())
	result := make(chan string, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- ""
			}
		}()
		result <- child.Regex(pattern)
	}()

	timer := time.NewTimer(p.patternTimeout)
	defer timer.Stop()

	select {
	case s := <-result:
		if !re.MatchString(s) {
			return "", fmt.Errorf("generated value %q does not match %q", s, pattern)
		}
		return s, nil
	case <-timer.C:
		return "", ErrPatternTimeout
	}
}

func (p *FakerProvider) Alphanumeric(minLen, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}
	n := p.faker.IntRange(minLen, maxLen)
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[p.faker.IntRange(0, len(alphanumeric)-1)]
	}
	return string(b)
}

func (p *FakerProvider) Int(lo, hi int) int {
	if lo < hi && hi-lo+1 <= 0 {
		// The span does not fit in an int; draw it as unsigned.
		return lo + int(p.faker.UintN(uint(hi)-uint(lo)+1))
	}
	return p.faker.IntRange(lo, hi)
}

func (p *FakerProvider) Float(lo, hi float64) float64 {
	return p.faker.Float64Range(lo, hi)
}

func (p *FakerProvider) Bool() bool {
	return p.faker.Bool()
}

func (p *FakerProvider) Pick(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[p.faker.IntRange(0, len(values)-1)]
}

func (p *FakerProvider) Email() string {
	return p.faker.Email()
}

func (p *FakerProvider) UUID() string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], p.faker.Uint64())
	binary.BigEndian.PutUint64(b[8:], p.faker.Uint64())
	id, err := uuid.NewRandomFromReader(bytes.NewReader(b[:]))
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (p *FakerProvider) Date() time.Time {
	return p.faker.Date()
}

func (p *FakerProvider) URI() string {
	return p.faker.URL()
}

func (p *FakerProvider) Word() string {
	return p.faker.Word()
}
