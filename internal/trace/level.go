package trace

import (
	"fmt"
	"strings"
)

// Level controls how much of the pipeline is traced. Each level adds one
// Scope: phase shows stages, detail adds files, debug adds documents.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelPhase
	LevelDetail
	LevelDebug
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// maxScope is the finest scope a level lets through, 0 for none.
func (l Level) maxScope() Scope {
	switch l {
	case LevelPhase:
		return ScopeStage
	case LevelDetail:
		return ScopeFile
	case LevelDebug:
		return ScopeDocument
	}
	return 0
}

// ShouldEmit reports whether spans and points of scope pass at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	return scope <= l.maxScope()
}

// accepts is ShouldEmit plus the exceptions: errors and heartbeats pass at
// every level but off.
func (l Level) accepts(ev *Event) bool {
	if l == LevelOff {
		return false
	}
	return ev.Error || ev.Kind == KindHeartbeat || l.ShouldEmit(ev.Scope)
}

// gate implements Level and Enabled for the concrete tracers.
type gate struct{ level Level }

func (g gate) Level() Level { return g.level }

func (g gate) Enabled() bool { return g.level > LevelOff }
