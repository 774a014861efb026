// Package console implements an interactive plain-text annotator driven over
// stdin/stdout. It renders the item's fields (with optional phrase
// highlighting), walks the session's tasks one question at a time and parses
// each answer through the task's kind, re-prompting locally on bad input.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/labelloop/labelloop/annotate"
	"github.com/labelloop/labelloop/core"
)

// defaultStopWords end the whole run when entered as an answer.
var defaultStopWords = []string{".", "exit", "quit"}

// Options configure the console annotator.
type Options struct {
	// Input defaults to os.Stdin.
	Input io.Reader
	// Output defaults to os.Stdout.
	Output io.Writer
	// ColorEnabled toggles ANSI color output.
	ColorEnabled bool
	// Highlights maps phrases to color attributes; matching is
	// case-insensitive on rendered field values.
	Highlights map[string][]color.Attribute
	// StopWords end the run when entered verbatim (default ".", "exit", "quit").
	StopWords []string
	// MaxRetries bounds re-presentations after engine-side validation
	// failures before the run aborts. Zero means unbounded.
	MaxRetries int
}

// Annotator is an interactive console annotator.
type Annotator struct {
	reader      *bufio.Reader
	out         io.Writer
	color       bool
	highlighter *Highlighter
	stopWords   map[string]bool
	maxRetries  int
	retries     map[core.ItemID]int
}

// New creates a console annotator with optional overrides.
func New(optFns ...func(o *Options)) *Annotator {
	opts := Options{
		Input:        os.Stdin,
		Output:       os.Stdout,
		ColorEnabled: true,
		StopWords:    defaultStopWords,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	stopWords := make(map[string]bool, len(opts.StopWords))
	for _, w := range opts.StopWords {
		stopWords[strings.ToLower(w)] = true
	}

	return &Annotator{
		reader:      bufio.NewReader(opts.Input),
		out:         opts.Output,
		color:       opts.ColorEnabled,
		highlighter: NewHighlighter(opts.Highlights, opts.ColorEnabled),
		stopWords:   stopWords,
		maxRetries:  opts.MaxRetries,
		retries:     make(map[core.ItemID]int),
	}
}

// Annotate implements annotate.Annotator. It renders the item, asks every
// task in order and returns the collected answer set. Entering a stop word
// ends the run; an empty line leaves the task unanswered (the engine applies
// the task's default or nil where permitted), or accepts the draft answer
// when one is attached.
func (a *Annotator) Annotate(ctx context.Context, prompt annotate.Prompt) (map[string]any, error) {
	if prompt.Err != nil {
		a.retries[prompt.ID]++
		if a.maxRetries > 0 && a.retries[prompt.ID] > a.maxRetries {
			return nil, fmt.Errorf("giving up on item %q after %d invalid attempts: %w", string(prompt.ID), a.maxRetries, prompt.Err)
		}
		fmt.Fprintln(a.out, a.colorize(fmt.Sprintf("Invalid answer: %v", prompt.Err), color.FgRed))
	}

	a.printHeader(prompt)
	a.printFields(prompt.Fields)

	values := make(map[string]any, len(prompt.Tasks))
	for _, task := range prompt.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, answered, err := a.ask(task, prompt.Draft)
		if err != nil {
			return nil, err
		}
		if answered {
			values[task.Name] = value
		}
	}
	return values, nil
}

func (a *Annotator) printHeader(prompt annotate.Prompt) {
	separator := strings.Repeat("=", 60)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, a.colorize(separator, color.FgCyan))
	title := fmt.Sprintf("%s  item %s  (%d/%d)",
		prompt.Progress.SessionName, string(prompt.ID), prompt.Progress.Position+1, prompt.Progress.Total)
	fmt.Fprintln(a.out, a.colorize(title, color.FgYellow, color.Bold))
	fmt.Fprintln(a.out, a.colorize(separator, color.FgCyan))
}

func (a *Annotator) printFields(fields []core.Field) {
	for _, f := range fields {
		label := a.colorize(f.Label+":", color.FgCyan)
		fmt.Fprintf(a.out, "%s %s\n", label, a.highlighter.Apply(core.FormatCell(f.Value)))
	}
	fmt.Fprintln(a.out)
}

// ask prompts for one task until the input parses, a stop word is entered or
// input is exhausted. The second return reports whether an answer was given.
func (a *Annotator) ask(task core.Task, draft map[string]any) (any, bool, error) {
	question := a.questionText(task, draft)
	for {
		fmt.Fprint(a.out, question)

		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil, false, annotate.ErrStop
			}
			return nil, false, fmt.Errorf("failed to read input: %w", err)
		}
		line = strings.TrimSpace(line)

		if a.stopWords[strings.ToLower(line)] {
			return nil, false, annotate.ErrStop
		}
		if line == "" {
			if draftValue, ok := draft[task.Name]; ok {
				return draftValue, true, nil
			}
			return nil, false, nil
		}

		value, err := task.Kind.Parse(line)
		if err != nil {
			fmt.Fprintln(a.out, a.colorize(err.Error(), color.FgRed))
			continue
		}
		return value, true, nil
	}
}

func (a *Annotator) questionText(task core.Task, draft map[string]any) string {
	var b strings.Builder
	b.WriteString(a.colorize(task.Name, color.FgGreen, color.Bold))
	fmt.Fprintf(&b, " [%s]", task.Kind.Name())

	switch k := task.Kind.(type) {
	case core.ChoiceKind:
		b.WriteString("\n")
		for _, c := range k.Choices {
			if label, ok := k.Labels[c]; ok {
				fmt.Fprintf(&b, "  %s: %s\n", c, label)
			} else {
				fmt.Fprintf(&b, "  %s\n", c)
			}
		}
	case core.MultiChoiceKind:
		fmt.Fprintf(&b, " (comma-separated from: %s)", strings.Join(k.Choices, ", "))
	}

	if task.Instruction != "" {
		fmt.Fprintf(&b, "\n%s", task.Instruction)
	}
	if draftValue, ok := draft[task.Name]; ok {
		suggestion := fmt.Sprintf("draft: %s (enter to accept)", core.FormatCell(draftValue))
		fmt.Fprintf(&b, "\n%s", a.colorize(suggestion, color.FgMagenta))
	}
	b.WriteString("\n> ")
	return b.String()
}

// colorize applies color to text if color is enabled.
func (a *Annotator) colorize(text string, attributes ...color.Attribute) string {
	if !a.color {
		return text
	}
	c := color.New(attributes...)
	return c.Sprint(text)
}

// Highlighter emphasizes configured phrases inside rendered field values
// with color attributes. Matching is case-insensitive on whole phrases.
type Highlighter struct {
	phrases map[string][]color.Attribute
	enabled bool
}

// NewHighlighter creates a highlighter over the given phrase map. A nil map
// or disabled colors yields a pass-through highlighter.
func NewHighlighter(phrases map[string][]color.Attribute, enabled bool) *Highlighter {
	return &Highlighter{phrases: phrases, enabled: enabled}
}

// Apply returns text with every configured phrase wrapped in its color.
func (h *Highlighter) Apply(text string) string {
	if !h.enabled || len(h.phrases) == 0 {
		return text
	}
	for phrase, attrs := range h.phrases {
		text = highlightPhrase(text, phrase, color.New(attrs...))
	}
	return text
}

func highlightPhrase(text, phrase string, c *color.Color) string {
	if phrase == "" {
		return text
	}

	// Case folding can change byte lengths (ToLower("Ⱥ") grows 2→3 bytes),
	// so matches are found rune-by-rune on the original string instead of
	// re-using offsets from a lowered copy.
	var b strings.Builder
	for i := 0; i < len(text); {
		if n := foldMatchLen(text[i:], phrase); n > 0 {
			b.WriteString(c.Sprint(text[i : i+n]))
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

// foldMatchLen returns the byte length of a case-insensitive match of phrase
// at the start of text, or 0 when text does not start with phrase.
func foldMatchLen(text, phrase string) int {
	i := 0
	for _, pr := range phrase {
		tr, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 || unicode.ToLower(tr) != unicode.ToLower(pr) {
			return 0
		}
		i += size
	}
	return i
}
