package risk

import (
	"fmt"
	"strings"
	"time"
)

// Default thresholds. They can be overridden through Thresholds, which is
// loaded from the gitguard configuration file.
const (
	// HighTime is the elapsed time after which a moderate volume of changes becomes high risk.
	HighTime = time.Hour

	// ModerateTime is the elapsed time after which any changed file becomes moderate risk.
	ModerateTime = 30 * time.Minute

	// HighFiles is the changed-file count that is high risk on its own.
	HighFiles = 10

	// ModerateFiles is the changed-file count that is moderate risk on its own.
	ModerateFiles = 3

	// HighLines is the changed-line count that is high risk on its own.
	HighLines = 100

	// ModerateLines is the changed-line count that is moderate risk on its own.
	ModerateLines = 50
)

// Tier is the estimated exposure of uncommitted work.
type Tier int

const (
	// Low means nothing needs to happen.
	Low Tier = iota
	// Moderate means a commit should be suggested.
	Moderate
	// High means the work should be committed now.
	High
)

var tierNames = map[Tier]string{
	Low:      "low",
	Moderate: "moderate",
	High:     "high",
}

// String returns the lower-case name of the tier.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier converts a tier name (case-insensitive) to a Tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "moderate":
		return Moderate, nil
	case "high":
		return High, nil
	default:
		return Low, fmt.Errorf("unknown risk tier %q (must be low, moderate or high)", s)
	}
}

// Action is the recommended response to a risk tier.
type Action int

const (
	// None means do nothing.
	None Action = iota
	// Suggest means surface a warning recommending a commit.
	Suggest
	// AutoCommit means commit the pending changes automatically.
	AutoCommit
)

var actionNames = map[Action]string{
	None:       "none",
	Suggest:    "suggest",
	AutoCommit: "auto-commit",
}

// String returns the lower-case name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Snapshot holds the facts about pending changes for one evaluation.
type Snapshot struct {
	SinceLastCommit   time.Duration `json:"since_last_commit"`
	ChangedFiles      int           `json:"changed_files"`
	ChangedLines      int           `json:"changed_lines"`
	Closing           bool          `json:"closing"`
	AutoCommitEnabled bool          `json:"auto_commit_enabled"`
}

// hasChanges reports whether anything is pending at all.
func (s Snapshot) hasChanges() bool {
	return s.ChangedFiles > 0 || s.ChangedLines > 0
}

// Assessment pairs a tier with the action it leads to.
type Assessment struct {
	Tier   Tier   `json:"tier"`
	Action Action `json:"action"`
}

// Thresholds holds the classifier limits.
type Thresholds struct {
	HighTime      time.Duration `yaml:"high_time" json:"high_time"`
	ModerateTime  time.Duration `yaml:"moderate_time" json:"moderate_time"`
	HighFiles     int           `yaml:"high_files" json:"high_files"`
	ModerateFiles int           `yaml:"moderate_files" json:"moderate_files"`
	HighLines     int           `yaml:"high_lines" json:"high_lines"`
	ModerateLines int           `yaml:"moderate_lines" json:"moderate_lines"`
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighTime:      HighTime,
		ModerateTime:  ModerateTime,
		HighFiles:     HighFiles,
		ModerateFiles: ModerateFiles,
		HighLines:     HighLines,
		ModerateLines: ModerateLines,
	}
}

// Validate checks that every limit is non-negative and that no moderate
// limit exceeds its high counterpart.
func (t Thresholds) Validate() error {
	if t.HighTime < 0 || t.ModerateTime < 0 {
		return fmt.Errorf("time thresholds must not be negative (high=%s, moderate=%s)", t.HighTime, t.ModerateTime)
	}
	if t.HighFiles < 0 || t.ModerateFiles < 0 {
		return fmt.Errorf("file thresholds must not be negative (high=%d, moderate=%d)", t.HighFiles, t.ModerateFiles)
	}
	if t.HighLines < 0 || t.ModerateLines < 0 {
		return fmt.Errorf("line thresholds must not be negative (high=%d, moderate=%d)", t.HighLines, t.ModerateLines)
	}
	if t.ModerateTime > t.HighTime {
		return fmt.Errorf("moderate time threshold %s exceeds high time threshold %s", t.ModerateTime, t.HighTime)
	}
	if t.ModerateFiles > t.HighFiles {
		return fmt.Errorf("moderate file threshold %d exceeds high file threshold %d", t.ModerateFiles, t.HighFiles)
	}
	if t.ModerateLines > t.HighLines {
		return fmt.Errorf("moderate line threshold %d exceeds high line threshold %d", t.ModerateLines, t.HighLines)
	}
	return nil
}

// Classify maps a snapshot to a tier. The first matching rule wins.
func (t Thresholds) Classify(s Snapshot) Tier {
	// Closing with anything pending means the work is about to disappear.
	if s.Closing && s.hasChanges() {
		return High
	}

	if s.SinceLastCommit > t.HighTime && (s.ChangedFiles >= t.ModerateFiles || s.ChangedLines >= t.ModerateLines) {
		return High
	}

	if s.ChangedFiles >= t.HighFiles || s.ChangedLines >= t.HighLines {
		return High
	}

	if s.SinceLastCommit > t.ModerateTime && s.ChangedFiles > 0 {
		return Moderate
	}

	if s.ChangedFiles >= t.ModerateFiles || s.ChangedLines >= t.ModerateLines {
		return Moderate
	}

	return Low
}

// Evaluate classifies the snapshot and decides the action in one step.
func (t Thresholds) Evaluate(s Snapshot) Assessment {
	tier := t.Classify(s)
	return Assessment{
		Tier:   tier,
		Action: DecideAction(tier, s.AutoCommitEnabled),
	}
}

// Classify maps a snapshot to a tier using the default thresholds.
func Classify(s Snapshot) Tier {
	return DefaultThresholds().Classify(s)
}

// Evaluate classifies and decides using the default thresholds.
func Evaluate(s Snapshot) Assessment {
	return DefaultThresholds().Evaluate(s)
}

// DecideAction maps a tier to an action. High risk only auto-commits when the
// user opted in; otherwise it falls back to a suggestion.
func DecideAction(tier Tier, autoCommitEnabled bool) Action {
	switch tier {
	case Moderate:
		return Suggest
	case High:
		if autoCommitEnabled {
			return AutoCommit
		}
		return Suggest
	default:
		return None
	}
}
