package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cratewatch/cratewatch/internal/common/logger"
	"github.com/cratewatch/cratewatch/internal/crates"
	"github.com/cratewatch/cratewatch/internal/watch"
)

// emptyWatchMessage is the canonical empty-state reply, sent both for
// an empty list and for an add with no valid crate names.
const emptyWatchMessage = "No crates being watched"

// helpText is the fixed usage reply for the help command.
const helpText = `!add <crate>... - Add crates to be watched;
!list - List watched crates.
!remove <crate>... - Remove crates from watch list.
!help - Show this dialog.`

// Registry resolves a crate name to its latest published version.
// Implementations distinguish a missing crate (crates.ErrNotFound)
// from any other failure.
type Registry interface {
	LatestVersion(name string) (string, error)
}

// Sender delivers a plain-text message to a chat room.
type Sender interface {
	SendText(roomID, body string) error
}

// Message is an inbound chat message as seen by the handler.
type Message struct {
	RoomID string
	Sender string
	Body   string
}

// Handler executes chat commands against the watch list and replies
// into the configured room. All collaborators are passed in at
// construction; the handler holds no ambient state.
type Handler struct {
	registry Registry
	sender   Sender
	list     *watch.List
	room     string
}

// NewHandler creates a command handler bound to one room.
func NewHandler(registry Registry, sender Sender, list *watch.List, room string) *Handler {
	return &Handler{
		registry: registry,
		sender:   sender,
		list:     list,
		room:     room,
	}
}

// HandleMessage dispatches a single inbound message. It returns true
// when the message matched a command, whether or not it acted on it,
// so the caller stops further matching. Messages from rooms other
// than the configured one are recognized but ignored.
func (h *Handler) HandleMessage(msg Message) bool {
	cmd, ok := Parse(msg.Body)
	if !ok {
		return false
	}

	if msg.RoomID != h.room {
		return true
	}

	var reply string
	switch cmd.Kind {
	case KindAdd:
		reply = h.runAdd(cmd.Args)
	case KindRemove:
		reply = h.runRemove(cmd.Args)
	case KindList:
		reply = h.runList()
	case KindHelp:
		reply = helpText
	}

	if err := h.sender.SendText(h.room, reply); err != nil {
		logger.Warn("failed to send reply: %v", err)
	}
	return true
}

// runAdd resolves each named crate against the registry and inserts
// the ones that exist. Registry failures are reported per name and
// never abort the rest of the list.
func (h *Handler) runAdd(names []string) string {
	var b strings.Builder

	for _, name := range names {
		latest, err := h.registry.LatestVersion(name)
		if err != nil {
			if errors.Is(err, crates.ErrNotFound) {
				fmt.Fprintf(&b, "Error: `%s` not found\n", name)
			} else {
				fmt.Fprintf(&b, "Error: `%s`, %v\n", name, err)
			}
			continue
		}

		h.list.Set(name, latest)
		fmt.Fprintf(&b, "Added `%s` version `%s`\n", name, latest)
	}

	if b.Len() == 0 {
		return emptyWatchMessage
	}
	return b.String()
}

// runRemove deletes each named crate, reporting the prior version for
// names that were watched and an error line for names that were not.
func (h *Handler) runRemove(names []string) string {
	var b strings.Builder

	for _, name := range names {
		if version, ok := h.list.Remove(name); ok {
			fmt.Fprintf(&b, "Removed `%s` (version `%s`)\n", name, version)
		} else {
			fmt.Fprintf(&b, "Error: `%s` not being watched\n", name)
		}
	}

	return b.String()
}

// runList renders the watch list from a single snapshot, sorted by
// crate name for stable output.
func (h *Handler) runList() string {
	entries := h.list.Snapshot()
	if len(entries) == 0 {
		return emptyWatchMessage
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "`%s`:\t`%s`\n", entry.Name, entry.Version)
	}
	return b.String()
}
