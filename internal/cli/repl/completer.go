package repl

import "strings"

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"open", "open /", "open /admin/login", "open /admin/dashboard",
			"back", "history",
			"login", "logout",
			"pay", "refresh",
			"help", "exit", "quit",
		},
	}
}

// Complete returns the commands starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Suggest returns candidates for a mistyped command: commands sharing its
// first letter, without arguments.
func (c *Completer) Suggest(word string) []string {
	if word == "" {
		return nil
	}
	var out []string
	for _, cmd := range c.Complete(word[:1]) {
		if !strings.Contains(cmd, " ") {
			out = append(out, cmd)
		}
	}
	return out
}
