package vm

import (
	"fmt"
	"strings"

	"stateful/internal/mir"
	"stateful/internal/source"
)

// PanicCode identifies the type of VM failure.
type PanicCode int

// Stable codes - do not change values.
const (
	PanicFinished       PanicCode = 2001 // VM2001: driven after the terminal output
	PanicReentrant      PanicCode = 2002 // VM2002: driven while a step is running
	PanicMissingCapture PanicCode = 2003 // VM2003: local not captured by the current state
	PanicStepLimit      PanicCode = 2004 // VM2004: step budget exhausted
	PanicUnbound        PanicCode = 2005 // VM2005: unknown name
	PanicTypeMismatch   PanicCode = 2006 // VM2006: operand of the wrong kind
	PanicNoMatch        PanicCode = 2007 // VM2007: no match arm applies
	PanicBadCall        PanicCode = 2008 // VM2008: unknown function or bad arguments
	PanicDivByZero      PanicCode = 2009 // VM2009: division by zero
	PanicNotResumable   PanicCode = 2010 // VM2010: Resume on a machine without a resume layer
)

func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// VMError is a runtime failure while driving a machine.
type VMError struct {
	Code    PanicCode
	Message string
	State   string
	Block   mir.BlockID
	Span    source.Span
}

func (e *VMError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("panic %s: %s (in %s)", e.Code, e.Message, e.State)
	}
	return fmt.Sprintf("panic %s: %s", e.Code, e.Message)
}

// FormatWithFiles formats the error with a resolved location.
func (e *VMError) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteString("\n")
	if files != nil && e.Span.Known() {
		sb.WriteString("at ")
		sb.WriteString(files.Format(e.Span))
		sb.WriteString("\n")
	}
	return sb.String()
}

func vmErrorf(code PanicCode, format string, args ...any) *VMError {
	return &VMError{Code: code, Message: fmt.Sprintf(format, args...), Block: mir.NoBlockID}
}
