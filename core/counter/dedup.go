package counter

import (
	"strings"
	"time"

	"github.com/trezcool/arifa/core/school"
)

// The same logical fact can be persisted more than once by independent write
// paths (a duplicated comment record, or a comment mirrored by a system
// notification). Everything in this file collapses such overlapping
// representations so a fact contributes to at most one sub-count per viewer.

const keySep = "\x1f"

// commentKey identifies one logical comment fact: two records with the same
// task, author, text and timestamp are the same user action.
func commentKey(c school.Comment) string {
	return strings.Join([]string{
		c.TaskID,
		c.Author(),
		c.Text,
		c.Timestamp.UTC().Format(time.RFC3339Nano),
	}, keySep)
}

// dedupeComments keeps the first occurrence of each logical comment.
func dedupeComments(comments []school.Comment) []school.Comment {
	seen := make(map[string]struct{}, len(comments))
	out := make([]school.Comment, 0, len(comments))
	for _, c := range comments {
		key := commentKey(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// dropMirrored removes comments already represented by an unread
// teacher-comment notification addressed to the viewer: same task and author,
// timestamps within the mirror window. Each notification mirrors at most one
// comment (the nearest in time), so distinct messages from the same author
// stay distinct facts. The notification representation is preferred so the
// fact is counted once, under system notifications.
func dropMirrored(comments []school.Comment, notifs []school.Notification, viewer school.Viewer, window time.Duration) []school.Comment {
	var mirrors []school.Notification
	for _, n := range notifs {
		if n.Type == school.NotifTeacherComment && n.Targets(viewer) && !n.ReadByViewer(viewer) {
			mirrors = append(mirrors, n)
		}
	}
	if len(mirrors) == 0 {
		return comments
	}

	used := make([]bool, len(mirrors))
	out := make([]school.Comment, 0, len(comments))
	for _, c := range comments {
		if i := nearestMirror(c, mirrors, used, window); i >= 0 {
			used[i] = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// nearestMirror returns the index of the closest unconsumed mirror candidate
// for the comment, or -1.
func nearestMirror(c school.Comment, mirrors []school.Notification, used []bool, window time.Duration) int {
	best := -1
	var bestDelta time.Duration
	for i, n := range mirrors {
		if used[i] || n.TaskID != c.TaskID || n.FromUsername != c.Author() {
			continue
		}
		delta := absDelta(n.Timestamp, c.Timestamp)
		if delta >= window {
			continue
		}
		if best < 0 || delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}
	return best
}

// latestSubmissions groups submissions by (task, author) and keeps only the
// most recent per group: a re-submission replaces, never inflates.
func latestSubmissions(subs []school.Comment) map[string]school.Comment {
	latest := make(map[string]school.Comment)
	for _, sub := range subs {
		key := sub.TaskID + keySep + sub.Author()
		if prev, ok := latest[key]; !ok || sub.Timestamp.After(prev.Timestamp) {
			latest[key] = sub
		}
	}
	return latest
}

func absDelta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
