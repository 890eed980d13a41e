package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Tree intake: malformed input surfaced by the loader or the walker.
	TreeInfo        Code = 1000
	TreeUnknownKind Code = 1001
	TreeBadLayout   Code = 1002
	TreeDepthLimit  Code = 1003
	TreeLoadError   Code = 1004

	// Rule findings. One code per registered rule.
	RuleInfo                Code = 2000
	RuleThrowInCleanup      Code = 2001
	RuleEmptyCleanup        Code = 2002
	RuleRethrowOutsideCatch Code = 2003

	// Fix pipeline.
	FixInfo           Code = 3000
	FixStaleReference Code = 3001
	FixConflict       Code = 3002

	// Configuration.
	CfgInfo        Code = 4000
	CfgUnknownRule Code = 4001
	CfgBadSeverity Code = 4002

	// Observability.
	ObsInfo    Code = 5000
	ObsTimings Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown diagnostic",

	TreeInfo:        "Tree information",
	TreeUnknownKind: "Unrecognized node kind",
	TreeBadLayout:   "Invalid try construct layout",
	TreeDepthLimit:  "Nesting exceeds the defensive depth limit",
	TreeLoadError:   "Failed to load tree document",

	RuleInfo:                "Rule information",
	RuleThrowInCleanup:      "Throw inside a cleanup region",
	RuleEmptyCleanup:        "Empty cleanup region",
	RuleRethrowOutsideCatch: "Bare rethrow outside a catch clause",

	FixInfo:           "Fix information",
	FixStaleReference: "Fix target no longer present in the tree",
	FixConflict:       "Fix overlaps a previously selected fix",

	CfgInfo:        "Configuration information",
	CfgUnknownRule: "Configuration names an unknown rule",
	CfgBadSeverity: "Configuration names an unknown severity",

	ObsInfo:    "Observability information",
	ObsTimings: "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("TRE%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RUL%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("FIX%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
