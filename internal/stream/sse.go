package stream

import (
	"bufio"
	"io"
	"strings"
)

// Event is a single Server-Sent Event parsed from the feed.
type Event struct {
	// Type is the event type from the "event:" field. Empty string
	// if no event type was specified.
	Type string

	// Data is the event payload, assembled from one or more "data:"
	// lines. Multiple data lines are joined with newlines per the
	// SSE specification.
	Data string
}

// Scanner reads Server-Sent Events from an [io.Reader] according to
// the W3C Server-Sent Events specification.
//
// Events are delimited by blank lines. Within an event, lines starting
// with "data:" carry the payload, and lines starting with "event:"
// specify the event type. Comment lines (starting with ":") and
// unknown fields are ignored.
type Scanner struct {
	reader  *bufio.Reader
	current Event
	err     error
}

// NewScanner creates a scanner that reads SSE events from reader.
func NewScanner(reader io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReaderSize(reader, 64*1024),
	}
}

// Next advances to the next event. Returns false when the stream ends
// (EOF) or an error occurs. After Next returns false, call [Err] to
// distinguish EOF from errors.
func (s *Scanner) Next() bool {
	s.current = Event{}

	var dataLines []string
	var eventType string
	hasData := false

	for {
		line, err := s.reader.ReadString('\n')

		// Handle partial last line (no trailing newline before EOF).
		if err != nil && line == "" {
			if err == io.EOF {
				if hasData {
					s.current = Event{
						Type: eventType,
						Data: strings.Join(dataLines, "\n"),
					}
					// Set EOF so the next call to Next returns false.
					s.err = io.EOF
					return true
				}
				return false
			}
			s.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")

		// Blank line = event boundary.
		if line == "" {
			if hasData {
				s.current = Event{
					Type: eventType,
					Data: strings.Join(dataLines, "\n"),
				}
				return true
			}
			eventType = ""
			continue
		}

		// Comment lines start with ":". The feed uses them as heartbeats.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			field = line
			value = ""
		} else {
			// Per spec: if value starts with a space, remove exactly one.
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			eventType = value
		default:
			// "id", "retry", and unknown fields are ignored; the feed
			// carries its own sequence numbers inside the payload.
		}
	}
}

// EventData returns the most recently parsed event. Only valid after
// [Next] returns true.
func (s *Scanner) EventData() Event {
	return s.current
}

// Err returns the first error encountered during scanning. Returns nil
// if scanning ended due to a clean EOF.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
