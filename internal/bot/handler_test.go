package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/cratewatch/cratewatch/internal/crates"
	"github.com/cratewatch/cratewatch/internal/watch"
)

const testRoom = "!r:example.org"

// stubRegistry resolves versions from a fixed map and records every
// lookup. Names absent from both maps resolve as not found.
type stubRegistry struct {
	versions map[string]string
	errs     map[string]error
	calls    []string
}

func (s *stubRegistry) LatestVersion(name string) (string, error) {
	s.calls = append(s.calls, name)
	if err, ok := s.errs[name]; ok {
		return "", err
	}
	if version, ok := s.versions[name]; ok {
		return version, nil
	}
	return "", crates.ErrNotFound
}

type sentMessage struct {
	room string
	body string
}

type fakeSender struct {
	messages []sentMessage
}

func (f *fakeSender) SendText(room, body string) error {
	f.messages = append(f.messages, sentMessage{room: room, body: body})
	return nil
}

func (f *fakeSender) lastBody(t *testing.T) string {
	t.Helper()
	if len(f.messages) == 0 {
		t.Fatal("Expected a reply to have been sent")
	}
	return f.messages[len(f.messages)-1].body
}

func newTestHandler(registry *stubRegistry) (*Handler, *fakeSender, *watch.List) {
	sender := &fakeSender{}
	list := watch.NewList()
	return NewHandler(registry, sender, list, testRoom), sender, list
}

func message(body string) Message {
	return Message{RoomID: testRoom, Sender: "@alice:example.org", Body: body}
}

func TestAddSingleCrate(t *testing.T) {
	registry := &stubRegistry{versions: map[string]string{"serde": "1.0.210"}}
	handler, sender, list := newTestHandler(registry)

	if !handler.HandleMessage(message("!add serde")) {
		t.Fatal("Expected command to be handled")
	}

	version, ok := list.Get("serde")
	if !ok || version != "1.0.210" {
		t.Errorf("Expected serde at 1.0.210 in watch list, got %q (present=%v)", version, ok)
	}

	reply := sender.lastBody(t)
	if !strings.Contains(reply, "Added `serde` version `1.0.210`") {
		t.Errorf("Unexpected reply: %q", reply)
	}
}

// Adding the same crate twice keeps one entry but still reports two
// success lines.
func TestAddIsIdempotent(t *testing.T) {
	registry := &stubRegistry{versions: map[string]string{"serde": "1.0.210"}}
	handler, sender, list := newTestHandler(registry)

	handler.HandleMessage(message("!add serde serde"))

	if list.Len() != 1 {
		t.Errorf("Expected exactly 1 entry, got %d", list.Len())
	}

	reply := sender.lastBody(t)
	if got := strings.Count(reply, "Added `serde` version `1.0.210`"); got != 2 {
		t.Errorf("Expected 2 success lines, got %d in %q", got, reply)
	}
}

func TestAddRegistryErrors(t *testing.T) {
	registry := &stubRegistry{
		versions: map[string]string{"serde": "1.0.210"},
		errs:     map[string]error{"tokio": errors.New("connection reset")},
	}
	handler, sender, list := newTestHandler(registry)

	handler.HandleMessage(message("!add serde missing tokio"))

	if list.Len() != 1 {
		t.Errorf("Expected only serde to be watched, got %d entries", list.Len())
	}

	reply := sender.lastBody(t)
	if !strings.Contains(reply, "Added `serde` version `1.0.210`") {
		t.Errorf("Expected success line for serde in %q", reply)
	}
	if !strings.Contains(reply, "Error: `missing` not found") {
		t.Errorf("Expected not-found line for missing in %q", reply)
	}
	if !strings.Contains(reply, "Error: `tokio`, connection reset") {
		t.Errorf("Expected generic error line for tokio in %q", reply)
	}
}

// An add with no valid names replies with the canonical empty-state
// message and mutates nothing.
func TestAddEmptyArgumentList(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no names", body: "!add"},
		{name: "whitespace tail", body: "!add     "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &stubRegistry{}
			handler, sender, list := newTestHandler(registry)

			handler.HandleMessage(message(tt.body))

			if list.Len() != 0 {
				t.Errorf("Expected no mutation, got %d entries", list.Len())
			}
			if reply := sender.lastBody(t); reply != "No crates being watched" {
				t.Errorf("Expected empty-state reply, got %q", reply)
			}
			if len(registry.calls) != 0 {
				t.Errorf("Expected no registry lookups, got %v", registry.calls)
			}
		})
	}
}

func TestRemoveWatchedCrate(t *testing.T) {
	registry := &stubRegistry{}
	handler, sender, list := newTestHandler(registry)
	list.Set("serde", "1.0.210")

	handler.HandleMessage(message("!remove serde"))

	if list.Len() != 0 {
		t.Errorf("Expected empty list after remove, got %d entries", list.Len())
	}
	reply := sender.lastBody(t)
	if !strings.Contains(reply, "Removed `serde` (version `1.0.210`)") {
		t.Errorf("Unexpected reply: %q", reply)
	}
}

// Removing a name never added reports an error line and leaves the
// list unchanged.
func TestRemoveUnknownCrate(t *testing.T) {
	registry := &stubRegistry{}
	handler, sender, list := newTestHandler(registry)
	list.Set("serde", "1.0.210")

	handler.HandleMessage(message("!remove tokio"))

	if list.Len() != 1 {
		t.Errorf("Expected list unchanged, got %d entries", list.Len())
	}
	reply := sender.lastBody(t)
	if !strings.Contains(reply, "Error: `tokio` not being watched") {
		t.Errorf("Unexpected reply: %q", reply)
	}
}

func TestRemoveNoArguments(t *testing.T) {
	registry := &stubRegistry{}
	handler, sender, _ := newTestHandler(registry)

	handler.HandleMessage(message("!remove"))

	if reply := sender.lastBody(t); reply != "" {
		t.Errorf("Expected empty reply, got %q", reply)
	}
}

// The list reply reflects adds and removes.
func TestListReflectsWatchList(t *testing.T) {
	registry := &stubRegistry{versions: map[string]string{"foo": "1.2.3"}}
	handler, sender, _ := newTestHandler(registry)

	handler.HandleMessage(message("!add foo"))
	handler.HandleMessage(message("!list"))

	reply := sender.lastBody(t)
	if !strings.Contains(reply, "`foo`:\t`1.2.3`") {
		t.Errorf("Expected foo at 1.2.3 in list reply, got %q", reply)
	}

	handler.HandleMessage(message("!remove foo"))
	handler.HandleMessage(message("!list"))

	if reply := sender.lastBody(t); reply != "No crates being watched" {
		t.Errorf("Expected empty-state reply, got %q", reply)
	}
}

func TestListSortedByName(t *testing.T) {
	registry := &stubRegistry{}
	handler, sender, list := newTestHandler(registry)
	list.Set("tokio", "1.38.0")
	list.Set("anyhow", "1.0.86")
	list.Set("serde", "1.0.210")

	handler.HandleMessage(message("!list"))

	reply := sender.lastBody(t)
	anyhowIdx := strings.Index(reply, "anyhow")
	serdeIdx := strings.Index(reply, "serde")
	tokioIdx := strings.Index(reply, "tokio")
	if anyhowIdx < 0 || serdeIdx < 0 || tokioIdx < 0 {
		t.Fatalf("Expected all crates in reply: %q", reply)
	}
	if !(anyhowIdx < serdeIdx && serdeIdx < tokioIdx) {
		t.Errorf("Expected entries sorted by name, got %q", reply)
	}
}

func TestHelp(t *testing.T) {
	registry := &stubRegistry{}
	handler, sender, _ := newTestHandler(registry)

	handler.HandleMessage(message("!help"))

	reply := sender.lastBody(t)
	for _, cmd := range []string{"!add", "!remove", "!list", "!help"} {
		if !strings.Contains(reply, cmd) {
			t.Errorf("Expected help text to mention %s: %q", cmd, reply)
		}
	}
}

// A command from any room other than the configured one triggers no
// mutation and no reply.
func TestIgnoresOtherRooms(t *testing.T) {
	registry := &stubRegistry{versions: map[string]string{"serde": "1.0.210"}}
	handler, sender, list := newTestHandler(registry)

	handled := handler.HandleMessage(Message{
		RoomID: "!other:example.org",
		Sender: "@alice:example.org",
		Body:   "!add serde",
	})

	if !handled {
		t.Error("Expected command to be recognized as terminal")
	}
	if list.Len() != 0 {
		t.Errorf("Expected no mutation, got %d entries", list.Len())
	}
	if len(sender.messages) != 0 {
		t.Errorf("Expected no reply, got %v", sender.messages)
	}
	if len(registry.calls) != 0 {
		t.Errorf("Expected no registry lookups, got %v", registry.calls)
	}
}

func TestIgnoresNonCommands(t *testing.T) {
	registry := &stubRegistry{}
	handler, sender, _ := newTestHandler(registry)

	if handler.HandleMessage(message("good morning everyone")) {
		t.Error("Expected plain chatter not to be handled")
	}
	if len(sender.messages) != 0 {
		t.Errorf("Expected no reply, got %v", sender.messages)
	}
}

func TestRepliesGoToConfiguredRoom(t *testing.T) {
	registry := &stubRegistry{}
	handler, sender, _ := newTestHandler(registry)

	handler.HandleMessage(message("!list"))

	if len(sender.messages) != 1 {
		t.Fatalf("Expected exactly one reply, got %d", len(sender.messages))
	}
	if sender.messages[0].room != testRoom {
		t.Errorf("Expected reply in %s, got %s", testRoom, sender.messages[0].room)
	}
}

// Scenario: empty list, add alpha beta where alpha resolves and beta
// does not.
func TestAddMixedResolutionScenario(t *testing.T) {
	registry := &stubRegistry{versions: map[string]string{"alpha": "0.1.0"}}
	handler, sender, list := newTestHandler(registry)

	handler.HandleMessage(message("!add alpha beta"))

	if list.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", list.Len())
	}
	if version, ok := list.Get("alpha"); !ok || version != "0.1.0" {
		t.Errorf("Expected alpha at 0.1.0, got %q (present=%v)", version, ok)
	}
	if _, ok := list.Get("beta"); ok {
		t.Error("Expected beta not to be watched")
	}

	reply := sender.lastBody(t)
	if !strings.Contains(reply, "Added `alpha` version `0.1.0`") {
		t.Errorf("Expected alpha success line in %q", reply)
	}
	if !strings.Contains(reply, "Error: `beta` not found") {
		t.Errorf("Expected beta not-found line in %q", reply)
	}
}
