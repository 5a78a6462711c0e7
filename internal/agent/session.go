package agent

import (
	"strings"
	"time"
)

// MaxHistory bounds the exchanges kept per session.
const MaxHistory = 50

// Session is the state carried between turns of one conversation: the bound
// customer and the answered exchanges.
type Session struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customerId,omitempty"`
	History    []Exchange `json:"history"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Exchange is one answered user query.
type Exchange struct {
	TurnID     string    `json:"turnId"`
	Transcript string    `json:"transcript"`
	Reply      string    `json:"reply"`
	At         time.Time `json:"at"`
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, History: []Exchange{}, CreatedAt: now, UpdatedAt: now}
}

// appendExchange records an answered turn, dropping the oldest beyond MaxHistory.
func (s *Session) appendExchange(e Exchange) {
	s.History = append(s.History, e)
	if n := len(s.History); n > MaxHistory {
		s.History = append([]Exchange(nil), s.History[n-MaxHistory:]...)
	}
}

// chunkReply splits an assistant reply into sentence-like chunks so speech
// output can report how much of the reply was actually spoken.
// Heuristic: split on '.', '?', '!' and newlines, retaining punctuation.
// A '.' between digits ("89.99") does not end a chunk.
func chunkReply(reply string) []string {
	txt := strings.TrimSpace(reply)
	if txt == "" {
		return nil
	}
	runes := []rune(txt)
	var chunks []string
	var b strings.Builder
	emit := func() {
		chunk := strings.TrimSpace(b.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		b.Reset()
	}
	for i, r := range runes {
		switch r {
		case '.':
			b.WriteRune(r)
			if i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
				continue
			}
			emit()
		case '!', '?':
			b.WriteRune(r)
			emit()
		case '\n', '\r':
			emit()
		default:
			b.WriteRune(r)
		}
	}
	emit()
	return chunks
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
