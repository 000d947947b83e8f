// Package commands implements the built-in command catalog spec.md §4.3
// names: roughly eighty small, pure `run` functions dispatched by name
// through a declarative flag schema. Grounded on the teacher's
// pkg/policy/registry.go Register/LookupFactory pattern (panic on
// duplicate registration, package-level registry populated by each
// command file's init()), adapted from policy-factory objects to
// {schema, run} command entries.
package commands

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/shell"
)

// Run is one command's implementation: given the live system handle, the
// dispatched call's context (actor, session, stdin), its parsed flags, and
// its remaining positional tokens, produce a result.
type Run func(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result

// Entry is a command's full registration: its flag schema (shared with the
// executor's ParseFlags) plus its implementation and a one-line help blurb
// for `help`/`man`.
type Entry struct {
	Name   string
	Schema shell.CommandSchema
	Run    Run
	Help   string
}

// Registry is the name -> Entry catalog. It is safe for concurrent use,
// though in practice only ever mutated at init() time.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]Entry{}}
}

// Default is the process-wide catalog every command file's init() adds to.
var Default = NewRegistry()

// Register adds an entry, panicking on a duplicate name, matching the
// registry-of-factories discipline used elsewhere in this codebase: a
// silently shadowed command would be a bug, not a valid redefinition.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.Name]; exists {
		panic("commands: duplicate registration for " + e.Name)
	}
	r.entries[e.Name] = e
}

func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns every registered command name, sorted, for `help`/`ps`-style
// listings and the context bundle's `commands` field (spec.md §4.2).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch adapts the registry into the shell.Dispatch function signature
// pkg/shell calls per pipeline segment: look up the command, reject a
// root_required call from a non-root actor before it ever reaches the
// implementation, parse flags against its schema, and invoke it.
func (r *Registry) Dispatch(sys *System) shell.Dispatch {
	return func(name string, cc shell.CommandContext) effect.Result {
		entry, ok := r.Lookup(name)
		if !ok {
			return effect.FailWithSuggestion(
				fmt.Sprintf("%s: command not found", name),
				"run 'help' to list available commands",
			)
		}
		if entry.Schema.RootRequired && cc.Actor.Name != "root" {
			return effect.FailWithSuggestion(
				fmt.Sprintf("%s: permission denied", name),
				"this command requires root; try 'sudo "+name+"'",
			)
		}
		flags, pos := shell.ParseFlags(entry.Schema, cc.Args)
		return entry.Run(sys, cc, flags, pos)
	}
}
