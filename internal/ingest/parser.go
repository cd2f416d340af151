package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseReason classifies why a line was rejected.
type ParseReason string

const (
	ReasonMalformedLine   ParseReason = "malformed_line"
	ReasonUnknownKey      ParseReason = "unknown_key"
	ReasonNonNumericValue ParseReason = "non_numeric_value"
)

// ParseError is logged and dropped; it never interrupts the ingestion loop.
type ParseError struct {
	Reason ParseReason
	Line   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %q", e.Reason, e.Line)
}

// ParsedRecord is one accepted wire record. Timestamp is receipt time: the
// device clock is not authoritative.
type ParsedRecord struct {
	SensorKey string
	Value     float64
	Timestamp time.Time
}

// KeySet is the currently registered sensor-key vocabulary. Lines for keys
// outside it are dropped: a sensor must be explicitly added before its data
// is accepted.
type KeySet interface {
	HasKey(key string) bool
}

// Parser turns one decoded line into a ParsedRecord.
// Expected shape: <sensorKey><delim><numericValue>. Boards that frame lines
// as "<payload>*checksum" are accepted too; the envelope and checksum are
// stripped before parsing.
type Parser struct {
	delim string
	keys  KeySet
	now   func() time.Time
}

func NewParser(delim string, keys KeySet) *Parser {
	if delim == "" {
		delim = ":"
	}
	return &Parser{delim: delim, keys: keys, now: time.Now}
}

func (p *Parser) Parse(line string) (ParsedRecord, *ParseError) {
	payload := stripFraming(line)
	if payload == "" {
		return ParsedRecord{}, &ParseError{Reason: ReasonMalformedLine, Line: line}
	}

	parts := strings.SplitN(payload, p.delim, 2)
	if len(parts) != 2 {
		return ParsedRecord{}, &ParseError{Reason: ReasonMalformedLine, Line: line}
	}

	key := strings.ToLower(strings.TrimSpace(parts[0]))
	rawValue := strings.TrimSpace(parts[1])
	if key == "" || rawValue == "" {
		return ParsedRecord{}, &ParseError{Reason: ReasonMalformedLine, Line: line}
	}

	if !p.keys.HasKey(key) {
		return ParsedRecord{}, &ParseError{Reason: ReasonUnknownKey, Line: line}
	}

	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		return ParsedRecord{}, &ParseError{Reason: ReasonNonNumericValue, Line: line}
	}

	return ParsedRecord{SensorKey: key, Value: value, Timestamp: p.now()}, nil
}

// stripFraming removes the optional <...> envelope and *checksum suffix used
// by some sensor boards.
func stripFraming(line string) string {
	s := strings.TrimSpace(line)

	if strings.HasPrefix(s, "<") {
		if end := strings.IndexByte(s, '>'); end > 0 {
			s = s[1:end]
		}
	}
	if star := strings.IndexByte(s, '*'); star >= 0 {
		s = s[:star]
	}

	return strings.TrimSpace(s)
}
