package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dicelang/dice/lang/ast"
)

// ErrorCode is a stable, matchable compile-time diagnostic code (§6.4).
type ErrorCode string

const (
	TooManyUpvalues         ErrorCode = "TooManyUpvalues"
	TooManyConstants        ErrorCode = "TooManyConstants"
	ItemAlreadyDeclared     ErrorCode = "ItemAlreadyDeclared"
	UndeclaredVariable      ErrorCode = "UndeclaredVariable"
	ImmutableVariable       ErrorCode = "ImmutableVariable"
	InvalidAssignmentTarget ErrorCode = "InvalidAssignmentTarget"
	InvalidBreak            ErrorCode = "InvalidBreak"
	InvalidContinue         ErrorCode = "InvalidContinue"
	InvalidReturn           ErrorCode = "InvalidReturn"
	InvalidErrorPropagate   ErrorCode = "InvalidErrorPropagate"
	InvalidExport           ErrorCode = "InvalidExport"
	NewMustHaveSelfReceiver ErrorCode = "NewMustHaveSelfReceiver"
	SelfParameterHasType    ErrorCode = "SelfParameterHasType"
	OperatorMethodHasNoSelf ErrorCode = "OperatorMethodHasNoSelf"
	InvalidOperatorName     ErrorCode = "InvalidOperatorName"
)

// CompileError is one diagnostic, tied to the source span that produced it.
type CompileError struct {
	Code    ErrorCode
	Message string
	Span    ast.Span
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%s: %s: %s", e.Span.Start, e.Span.End, e.Code, e.Message)
}

// CompileErrors collects every diagnostic raised while compiling one unit,
// modeled on the teacher resolver's scanner.ErrorList: compilation keeps
// going after an error so a single pass can surface more than one mistake.
type CompileErrors []*CompileError

func (errs CompileErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

// Sort orders diagnostics by source position, for stable, readable output.
func (errs CompileErrors) Sort() {
	sort.Slice(errs, func(i, j int) bool {
		a, b := errs[i].Span.Start, errs[j].Span.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
}

// Err returns errs as an error, or nil if empty.
func (errs CompileErrors) Err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
