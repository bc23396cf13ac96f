// Package validation is the entry point for checking a document against a rule table.
package validation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/engine"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/flatten"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/locator"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/rules"
)

// MsgInvalidInput is the E000 message for a root that is not a non-empty mapping.
const MsgInvalidInput = "Invalid YAML data object"

// Observer receives per-call measurements. internal/metrics provides the Prometheus implementation.
type Observer interface {
	ObserveVerdict(code string, elapsed time.Duration)
	ObserveLineLookup(found bool)
}

type nopObserver struct{}

func (nopObserver) ObserveVerdict(string, time.Duration) {}
func (nopObserver) ObserveLineLookup(bool)               {}

// Validator checks documents against one immutable rule table. It is safe for concurrent use.
type Validator struct {
	table    *rules.Table
	logger   *slog.Logger
	observer Observer
	evaluate func(*rules.Table, document.Value, *flatten.Map) engine.Verdict
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. Stages log at debug, failures at warn.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(v *Validator) {
		if o != nil {
			v.observer = o
		}
	}
}

// New creates a validator. A nil table means rules.Default().
func New(table *rules.Table, opts ...Option) *Validator {
	if table == nil {
		table = rules.Default()
	}
	v := &Validator{
		table:    table,
		logger:   slog.Default(),
		observer: nopObserver{},
		evaluate: engine.Evaluate,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Table returns the rule table in use.
func (v *Validator) Table() *rules.Table { return v.table }

// Validate checks doc and returns exactly one verdict. source is the raw text doc was parsed from; when
// empty, line numbers are resolved against a canonical rendering of doc instead. Panics are recovered
// into E999.
func (v *Validator) Validate(doc document.Value, source string) (verdict engine.Verdict) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("validation panicked", "panic", r)
			verdict = engine.Fail(engine.CodeInternal, fmt.Sprintf("Validation exception: %v", r))
		}
		v.observer.ObserveVerdict(codeLabel(verdict), time.Since(start))
	}()

	if doc.Kind() != document.KindObject || doc.Len() == 0 {
		v.logger.Warn("rejecting document", "kind", doc.Kind().String(), "fields", doc.Len())
		return engine.Fail(engine.CodeInvalidInput, MsgInvalidInput)
	}

	flat := flatten.Flatten(doc)
	v.logger.Debug("document flattened", "entries", flat.Len())

	verdict = v.evaluate(v.table, doc, flat)
	if verdict.Valid {
		v.logger.Debug("document passed all checks")
		return verdict
	}

	if verdict.Code.Locatable() {
		verdict = v.locate(verdict, doc, source)
	}
	v.logger.Warn("document rejected", "code", string(verdict.Code), "message", verdict.Message, "line", verdict.Line)
	return verdict
}

func (v *Validator) locate(verdict engine.Verdict, doc document.Value, source string) engine.Verdict {
	key, ok := locator.ExtractPath(verdict.Message)
	if !ok {
		return verdict
	}
	if source == "" {
		text, err := locator.Emit(doc)
		if err != nil {
			v.logger.Warn("rendering document for line lookup", "error", err)
			return verdict
		}
		source = text
	}

	line := locator.FindLine(source, key)
	v.observer.ObserveLineLookup(line != locator.NotFound)
	if line == locator.NotFound {
		v.logger.Debug("key not located", "key", key)
		return verdict
	}
	return verdict.Located(key, line)
}

// ValidateText parses src as YAML and validates it with src as the line source. A parse failure is
// reported as E000.
func (v *Validator) ValidateText(src []byte) engine.Verdict {
	doc, err := document.FromYAML(src)
	if err != nil {
		v.logger.Warn("rejecting unparsable document", "error", err)
		verdict := engine.Fail(engine.CodeInvalidInput, fmt.Sprintf("%s: %v", MsgInvalidInput, err))
		v.observer.ObserveVerdict(codeLabel(verdict), 0)
		return verdict
	}
	return v.Validate(doc, string(src))
}

func codeLabel(verdict engine.Verdict) string {
	if verdict.Valid {
		return "ok"
	}
	return string(verdict.Code)
}
