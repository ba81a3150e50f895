package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Loading structured programs
	LoadInfo          Code = 1000
	LoadSyntax        Code = 1001
	LoadUnknownKind   Code = 1002
	LoadMissingField  Code = 1003
	LoadBadLiteral    Code = 1004
	LoadDuplicateFunc Code = 1005
	LoadBadIdentifier Code = 1006
	IOLoadFileError   Code = 1100

	// Unsupported constructs
	LowerInfo             Code = 4000
	LowerItemDecl         Code = 4001
	LowerBlockTail        Code = 4002
	LowerEmptyReturn      Code = 4003
	LowerBreakOutsideLoop Code = 4004
	LowerSuspendInCond    Code = 4005
	LowerNestedSuspend    Code = 4006
	LowerShadowInArm      Code = 4007
	LowerUnsupportedPat   Code = 4008
	LowerMarkerArity      Code = 4009
	LowerMovedInLoop      Code = 4010
	LowerTransferInExpr   Code = 4011

	// Internal invariants
	InternalInfo           Code = 5000
	InternalNoTerminator   Code = 5001
	InternalUninitialized  Code = 5002
	InternalExtentMismatch Code = 5003
	InternalDoubleTerm     Code = 5004
	InternalValidation     Code = 5005

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		LoadInfo:               "Loader information",
		LoadSyntax:             "Malformed program document",
		LoadUnknownKind:        "Unknown node kind",
		LoadMissingField:       "Missing required field",
		LoadBadLiteral:         "Malformed literal",
		LoadDuplicateFunc:      "Duplicate function name",
		LoadBadIdentifier:      "Invalid identifier",
		IOLoadFileError:        "I/O load file error",
		LowerInfo:              "Lowering information",
		LowerItemDecl:          "cannot handle item declarations",
		LowerBlockTail:         "block-valued tail expressions are not supported",
		LowerEmptyReturn:       "return without a value is not supported",
		LowerBreakOutsideLoop:  "break or continue outside of a loop",
		LowerSuspendInCond:     "suspension inside a condition is not supported",
		LowerNestedSuspend:     "suspension must be a statement or a let initializer",
		LowerShadowInArm:       "match arm binding shadows a live local",
		LowerUnsupportedPat:    "unsupported binding pattern",
		LowerMarkerArity:       "suspension marker takes exactly one argument",
		LowerMovedInLoop:       "value moved in a previous loop iteration",
		LowerTransferInExpr:    "control transfer inside an expression is not supported",
		InternalInfo:           "Internal information",
		InternalNoTerminator:   "block has no terminator",
		InternalUninitialized:  "uninitialized variables",
		InternalExtentMismatch: "scope extent mismatch",
		InternalDoubleTerm:     "block terminated twice",
		InternalValidation:     "block graph validation failed",
		ObsInfo:                "Observability information",
		ObsTimings:             "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LOD%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("ICE%04d", ic)
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
