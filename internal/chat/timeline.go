package chat

import (
	"time"

	"github.com/atelierhq/client-platform/internal/model"
)

// EntryKind discriminates timeline entries.
type EntryKind int

const (
	EntryMessage EntryKind = iota
	EntrySeparator
)

// Entry is one row of the display timeline: either a message or a
// synthetic day separator. Separators exist only in this projection;
// they are never persisted or merged back into the message list.
type Entry struct {
	Kind    EntryKind
	Message *model.Message
	Day     time.Time
	Label   string
}

// Timeline returns the display projection of the conversation: the
// chronological list with day separators interleaved at day boundaries,
// then the whole sequence reversed for a bottom-anchored, newest-first
// list. The projection is memoized until the message list changes.
func (s *Session) Timeline() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeline != nil && s.timelineVersion == s.version {
		return s.timeline
	}

	// Entries point into a private copy of the message list, so a later
	// poll rewriting s.messages cannot touch a projection already handed
	// out to a caller.
	msgs := make([]model.Message, len(s.messages))
	copy(msgs, s.messages)

	augmented := make([]Entry, 0, len(msgs)*2)
	var currentDay time.Time
	for i := range msgs {
		m := &msgs[i]
		day := dayOf(m.CreatedAt)
		if !day.Equal(currentDay) {
			currentDay = day
			augmented = append(augmented, Entry{
				Kind:  EntrySeparator,
				Day:   day,
				Label: dayLabel(day, time.Now()),
			})
		}
		augmented = append(augmented, Entry{Kind: EntryMessage, Message: m})
	}

	for i, j := 0, len(augmented)-1; i < j; i, j = i+1, j-1 {
		augmented[i], augmented[j] = augmented[j], augmented[i]
	}

	s.timeline = augmented
	s.timelineVersion = s.version
	return s.timeline
}

func dayOf(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayLabel(day, now time.Time) string {
	today := dayOf(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return day.Format("Monday, Jan 2")
	}
}
