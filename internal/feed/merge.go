package feed

import (
	"sort"

	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/status"
)

// Merger combines message and event snapshots into a single feed, using the
// taxonomy to label and classify event entries.
type Merger struct {
	tax *status.Taxonomy
}

func NewMerger(tax *status.Taxonomy) *Merger {
	return &Merger{tax: tax}
}

// Merge interleaves the two collections into one ascending-by-timestamp
// sequence. Neither input is assumed sorted: the two snapshots come from
// independent fetches that may race, so each is stably re-sorted first. On
// an exact timestamp tie the event entry sorts before the message, since the
// status change usually causes or accompanies the message that follows it.
//
// Merge is pure: it never mutates its inputs, has no side effects, and is
// cheap enough to re-run wholesale on every refresh. Output length is always
// len(messages) + len(events).
func (m *Merger) Merge(messages []models.ChatMessage, events []models.TimelineEvent) []Entry {
	msgs := make([]models.ChatMessage, len(messages))
	copy(msgs, messages)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	evts := make([]models.TimelineEvent, len(events))
	copy(evts, events)
	sort.SliceStable(evts, func(i, j int) bool {
		return evts[i].CreatedAt.Before(evts[j].CreatedAt)
	})

	entries := make([]Entry, 0, len(msgs)+len(evts))
	i, j := 0, 0
	for i < len(evts) || j < len(msgs) {
		switch {
		case j >= len(msgs):
			entries = append(entries, m.eventEntry(&evts[i]))
			i++
		case i >= len(evts):
			entries = append(entries, messageEntry(&msgs[j]))
			j++
		case !evts[i].CreatedAt.After(msgs[j].CreatedAt):
			// ties go to the event
			entries = append(entries, m.eventEntry(&evts[i]))
			i++
		default:
			entries = append(entries, messageEntry(&msgs[j]))
			j++
		}
	}
	return entries
}

func messageEntry(msg *models.ChatMessage) Entry {
	return Entry{
		Timestamp: msg.CreatedAt,
		Kind:      KindMessage,
		Message:   msg,
	}
}

func (m *Merger) eventEntry(ev *models.TimelineEvent) Entry {
	entry := Entry{
		Timestamp: ev.CreatedAt,
		Kind:      KindEvent,
		Event:     ev,
		Hint:      RenderHint{Emphasis: status.EmphasisNotice},
	}
	switch ev.Kind {
	case models.EventKindQuote:
		entry.Hint.Label = "New Quote"
	case models.EventKindStatusChange:
		if ev.ToStatus.Valid {
			s, _ := m.tax.StatusFor(ev.ToStatus.String)
			entry.Hint.Label = s.DisplayLabel
			entry.Hint.Emphasis = m.tax.Salience(ev.ToStatus.String)
		}
	default:
		entry.Hint.Label = status.Humanize(ev.Kind)
	}
	return entry
}
