package room

import (
	"fmt"
	"slices"
)

// eventLog 最近事件的有界日志，超出容量时丢弃最旧的条目
type eventLog struct {
	entries []string
	size    int
}

func newEventLog(size int) *eventLog {
	return &eventLog{entries: make([]string, 0, size), size: size}
}

func (l *eventLog) add(format string, args ...any) {
	if len(l.entries) == l.size {
		l.entries = slices.Delete(l.entries, 0, 1)
	}
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func (l *eventLog) snapshot() []string {
	return slices.Clone(l.entries)
}
