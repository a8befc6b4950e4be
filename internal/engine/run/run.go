// Package run executes extracted code blocks. Each document is transpiled to
// CommonJS with esbuild and evaluated in a fresh goja runtime; an uncaught
// exception becomes a message placed through the inline source map.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
	"github.com/evanw/esbuild/pkg/api"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/engine/syntax"
)

const (
	RuleID         = "runtime"
	DefaultTimeout = 2 * time.Second
)

type Engine struct {
	Timeout time.Duration
	// Stdout receives console output; nil discards it.
	Stdout io.Writer
	// Modules maps a require() specifier to CommonJS source. Anything else
	// throws "Cannot find module".
	Modules map[string]string
}

// New returns an engine with DefaultTimeout.
func New() *Engine {
	return &Engine{Timeout: DefaultTimeout}
}

func (e *Engine) Name() string {
	return "run"
}

// Check runs only extracted documents; the real file is a module, not an example.
func (e *Engine) Check(ctx context.Context, docs []codeblock.Document) ([][]diag.Message, error) {
	out := make([][]diag.Message, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !doc.IsVirtual() {
			continue
		}
		msg, err := e.runDocument(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Path(), err)
		}
		if msg != nil {
			out[i] = []diag.Message{*msg}
		}
	}
	return out, nil
}

func (e *Engine) runDocument(ctx context.Context, doc codeblock.Document) (*diag.Message, error) {
	result := api.Transform(doc.Text, api.TransformOptions{
		Loader:         syntax.LoaderFor(doc.Name),
		Sourcefile:     doc.Name,
		Format:         api.FormatCommonJS,
		Target:         api.ES2020,
		Sourcemap:      api.SourceMapInline,
		SourcesContent: api.SourcesContentExclude,
		LogLevel:       api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		// reported by the syntax engine
		return nil, nil
	}
	code := string(result.Code)
	sm, err := extractInlineSourceMap(code)
	if err != nil {
		return nil, err
	}

	// goja would apply the inline map itself; positions are mapped here instead
	// so both lookups go through the same consumer.
	ast, err := goja.Parse(doc.Name, code, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, fmt.Errorf("parsing transpiled code: %w", err)
	}
	prg, err := goja.CompileAST(ast, false)
	if err != nil {
		return nil, fmt.Errorf("compiling transpiled code: %w", err)
	}

	vm := goja.New()
	if err := e.setupGlobals(vm); err != nil {
		return nil, fmt.Errorf("setting up runtime: %w", err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt(fmt.Sprintf("execution timed out after %v", timeout))
	})
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	_, runErr := vm.RunProgram(prg)
	if runErr == nil {
		return nil, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var interrupted *goja.InterruptedError
	if errors.As(runErr, &interrupted) {
		return &diag.Message{
			RuleID:    RuleID,
			MessageID: "timeout",
			Severity:  diag.SevError,
			Text:      fmt.Sprint(interrupted.Value()),
			Line:      1,
			Column:    1,
		}, nil
	}

	var exc *goja.Exception
	if !errors.As(runErr, &exc) {
		return nil, runErr
	}
	msg := &diag.Message{
		RuleID:    RuleID,
		MessageID: "uncaught",
		Severity:  diag.SevError,
		Text:      "Uncaught " + exceptionText(exc),
		Line:      1,
		Column:    1,
	}
	if pos, ok := exceptionPosition(exc, doc.Name); ok {
		if mapped, ok := mapPosition(sm, pos); ok {
			msg.Line, msg.Column = mapped.Line, mapped.Column
		}
	}
	return msg, nil
}

// exceptionText is the thrown value as JavaScript would print it, without the stack.
func exceptionText(exc *goja.Exception) string {
	if v := exc.Value(); v != nil {
		if s := v.String(); s != "" {
			return s
		}
	}
	text := exc.Error()
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return text
}

func (e *Engine) setupGlobals(vm *goja.Runtime) error {
	stdout := e.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			fmt.Fprintln(stdout, strings.Join(parts, " "))
			return goja.Undefined()
		}); err != nil {
			return err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return err
	}
	if err := vm.Set("module", module); err != nil {
		return err
	}
	if err := vm.Set("exports", exports); err != nil {
		return err
	}

	cache := map[string]goja.Value{}
	return vm.Set("require", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if v, ok := cache[name]; ok {
			return v
		}
		src, ok := e.Modules[name]
		if !ok {
			panic(vm.NewTypeError("Cannot find module '%s'", name))
		}
		v, err := loadModule(vm, name, src)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		cache[name] = v
		return v
	})
}

// loadModule evaluates CommonJS source in vm and returns its module.exports.
func loadModule(vm *goja.Runtime, name, src string) (goja.Value, error) {
	wrapped := "(function(module, exports){" + src + "\n})"
	fn, err := vm.RunScript(name, wrapped)
	if err != nil {
		return nil, err
	}
	call, ok := goja.AssertFunction(fn)
	if !ok {
		return nil, fmt.Errorf("module %s: wrapper is not a function", name)
	}
	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	if _, err := call(goja.Undefined(), module, exports); err != nil {
		return nil, err
	}
	return module.Get("exports"), nil
}
