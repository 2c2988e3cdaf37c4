package events

import "strings"

// Mode selects the execution context a handler runs on.
type Mode int

const (
	// ModePosting runs the handler inline on the poster's goroutine.
	ModePosting Mode = iota
	// ModeAffinity runs the handler on the affinity context: inline when the
	// poster is already there, otherwise queued on the affinity scheduler.
	ModeAffinity
	// ModeAsync always hands the handler to the background executor.
	ModeAsync
	// ModeBackground keeps the handler off the affinity context: inline when
	// the poster is elsewhere, otherwise handed to the background executor.
	ModeBackground
)

var modeNames = [...]string{
	ModePosting:    "posting",
	ModeAffinity:   "affinity",
	ModeAsync:      "async",
	ModeBackground: "background",
}

func (m Mode) String() string {
	if m.valid() {
		return modeNames[m]
	}
	return "unknown"
}

func (m Mode) valid() bool {
	return m >= ModePosting && m <= ModeBackground
}

// ParseMode accepts the names produced by Mode.String, case-insensitively.
// "main" is accepted as an alias for affinity.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "posting":
		return ModePosting, nil
	case "affinity", "main":
		return ModeAffinity, nil
	case "async":
		return ModeAsync, nil
	case "background":
		return ModeBackground, nil
	}
	return ModePosting, ErrUnknownMode.WithDetail("mode", s)
}
