package lint

import (
	"regexp"

	"doccheck/internal/diag"
	"doccheck/internal/fix"
)

// Builtin returns a fresh set of the rules shipped with doccheck.
func Builtin() []Rule {
	return []Rule{
		arrayType{},
		noVar{},
		noExplicitAny{},
		noDebugger{},
	}
}

// Lookup finds a builtin rule by id.
func Lookup(id string) (Rule, bool) {
	for _, r := range Builtin() {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// arrayType flags Array<T> for simple element types and rewrites it to T[].
type arrayType struct{}

var arrayTypeRe = regexp.MustCompile(`\bArray<\s*([A-Za-z_$][\w$.]*(?:\[\])*)\s*>`)

func (arrayType) ID() string                     { return "array-type" }
func (arrayType) Description() string            { return "Require T[] over Array<T> for simple types" }
func (arrayType) DefaultSeverity() diag.Severity { return diag.SevWarning }

func (arrayType) Check(ctx *Context) {
	for _, m := range arrayTypeRe.FindAllStringSubmatchIndex(ctx.Code, -1) {
		elem := ctx.Code[m[2]:m[3]]
		ctx.Report(m[0], m[1],
			"Array type using 'Array<"+elem+">' is forbidden. Use '"+elem+"[]' instead.",
			fix.Replace(m[0], m[1], elem+"[]"))
	}
}

// noVar flags var declarations; the fix turns them into let.
type noVar struct{}

var noVarRe = regexp.MustCompile(`(?m)(?:^|[^\w$.])(var)\s+[A-Za-z_$\[{]`)

func (noVar) ID() string                     { return "no-var" }
func (noVar) Description() string            { return "Require let or const instead of var" }
func (noVar) DefaultSeverity() diag.Severity { return diag.SevError }

func (noVar) Check(ctx *Context) {
	for _, m := range noVarRe.FindAllStringSubmatchIndex(ctx.Code, -1) {
		ctx.Report(m[2], m[3], "Unexpected var, use let or const instead.",
			fix.Replace(m[2], m[3], "let"))
	}
}

// noExplicitAny flags any in type positions. Replacing it with unknown is
// offered as a suggestion since it may not type check.
type noExplicitAny struct{}

var anyRe = regexp.MustCompile(`(?:[:<,|&(]|\bas|\bkeyof)\s*(any)\b`)

func (noExplicitAny) ID() string                     { return "no-explicit-any" }
func (noExplicitAny) Description() string            { return "Disallow the any type" }
func (noExplicitAny) DefaultSeverity() diag.Severity { return diag.SevWarning }

func (noExplicitAny) Check(ctx *Context) {
	for _, m := range anyRe.FindAllStringSubmatchIndex(ctx.Code, -1) {
		ctx.Report(m[2], m[3], "Unexpected any. Specify a different type.", nil,
			diag.Suggestion{
				Desc: "Use `unknown` instead, this will force you to explicitly, and safely assert the type is correct.",
				Fix:  *fix.Replace(m[2], m[3], "unknown"),
			})
	}
}

// noDebugger flags debugger statements; the fix removes the statement.
type noDebugger struct{}

var debuggerRe = regexp.MustCompile(`\bdebugger\b[ \t]*;?`)

func (noDebugger) ID() string                     { return "no-debugger" }
func (noDebugger) Description() string            { return "Disallow debugger statements" }
func (noDebugger) DefaultSeverity() diag.Severity { return diag.SevError }

func (noDebugger) Check(ctx *Context) {
	for _, m := range debuggerRe.FindAllStringIndex(ctx.Code, -1) {
		ctx.Report(m[0], m[0]+len("debugger"), "Unexpected 'debugger' statement.", fix.Delete(m[0], m[1]))
	}
}
