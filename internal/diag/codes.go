package diag

import (
	"fmt"
)

type Code uint16

const (
	// Unknown/unclassified
	UnknownCode Code = 0

	// Bundle loading & validation
	BndInfo          Code = 1000
	BndParse         Code = 1001
	BndUnknownKey    Code = 1002
	BndBadSchema     Code = 1003
	BndBadSpan       Code = 1004
	BndBadRegion     Code = 1005
	BndBadCategory   Code = 1006
	BndBadConstraint Code = 1007
	BndBadGroup      Code = 1008
	BndBadViolation  Code = 1009
	BndBadFile       Code = 1010
	BndDupStatic     Code = 1011
	BndBadLocation   Code = 1012

	// Region / lifetime diagnostics
	RgnInfo     Code = 3000
	RgnEscape   Code = 3001
	RgnOutlives Code = 3002

	// I/O
	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:      "Unknown error",
	BndInfo:          "Bundle information",
	BndParse:         "Bundle parse error",
	BndUnknownKey:    "Unknown key in bundle",
	BndBadSchema:     "Unsupported bundle schema version",
	BndBadSpan:       "Span out of file bounds",
	BndBadRegion:     "Region index out of range",
	BndBadCategory:   "Unknown constraint category",
	BndBadConstraint: "Invalid constraint endpoint",
	BndBadGroup:      "Invalid region group partition",
	BndBadViolation:  "Invalid violation record",
	BndBadFile:       "Bundle file entry unusable",
	BndDupStatic:     "More than one region marked static",
	BndBadLocation:   "Location outside body",
	RgnInfo:          "Region information",
	RgnEscape:        "Borrowed data escapes its region",
	RgnOutlives:      "Unsatisfied outlives constraint",
	IOLoadFileError:  "I/O load file error",
	IOWriteFileError: "I/O write file error",
	ObsInfo:          "Observability information",
	ObsTimings:       "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("BND%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RGN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
