// Package bot implements the chat command handler and the version
// poll loop for the crate watch list.
package bot

import "strings"

// commandPrefix is the leading character that marks a chat message as
// a bot command.
const commandPrefix = "!"

// Kind identifies a parsed bot command.
type Kind int

const (
	// KindAdd adds crates to the watch list
	KindAdd Kind = iota
	// KindRemove removes crates from the watch list
	KindRemove
	// KindList lists the watched crates
	KindList
	// KindHelp shows the usage text
	KindHelp
)

// Command is a chat command parsed from a message body.
type Command struct {
	// Kind is the command variant
	Kind Kind
	// Args are the whitespace-separated arguments after the command
	// word; empty and duplicate tokens are kept out / kept as typed
	Args []string
}

// Parse extracts a command from a message body. It returns false if
// the body is not prefixed as a command or the command word is not
// recognized; such messages are ignored by the dispatcher.
func Parse(body string) (Command, bool) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, commandPrefix) {
		return Command{}, false
	}

	fields := strings.Fields(trimmed[len(commandPrefix):])
	if len(fields) == 0 {
		return Command{}, false
	}

	var kind Kind
	switch fields[0] {
	case "add":
		kind = KindAdd
	case "remove":
		kind = KindRemove
	case "list":
		kind = KindList
	case "help":
		kind = KindHelp
	default:
		return Command{}, false
	}

	return Command{Kind: kind, Args: fields[1:]}, true
}
