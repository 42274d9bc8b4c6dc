package notifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// FakeNotifier records notifications in memory. Tests mark users as
// unreachable to exercise the undeliverable-prompt paths.
type FakeNotifier struct {
	mu sync.Mutex

	Messages    map[string][]string
	Prompts     []FakePrompt
	Unreachable map[string]bool
}

type FakePrompt struct {
	PromptID string
	ScrimID  string
	UserID   string
	Prompt   string
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{
		Messages:    make(map[string][]string),
		Unreachable: make(map[string]bool),
	}
}

func (f *FakeNotifier) NotifyUser(ctx context.Context, userID, message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Unreachable[userID] {
		return false
	}
	f.Messages[userID] = append(f.Messages[userID], message)
	return true
}

func (f *FakeNotifier) RequestAcknowledgment(ctx context.Context, scrimID, userID, promptID, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Unreachable[userID] {
		return fmt.Errorf("user %s unreachable", userID)
	}

	f.Prompts = append(f.Prompts, FakePrompt{
		PromptID: promptID,
		ScrimID:  scrimID,
		UserID:   userID,
		Prompt:   prompt,
	})
	return nil
}

func (f *FakeNotifier) MessagesFor(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.Messages[userID]...)
}

func (f *FakeNotifier) PromptFor(userID string) (FakePrompt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.Prompts {
		if p.UserID == userID {
			return p, true
		}
	}
	return FakePrompt{}, false
}

// FakePresenter records presentation changes in memory.
type FakePresenter struct {
	mu sync.Mutex

	Updates  []FakePresentationUpdate
	Removals []string
}

type FakePresentationUpdate struct {
	ScrimID             string
	StatusText          string
	RemoveInteractivity bool
}

func NewFakePresenter() *FakePresenter {
	return &FakePresenter{}
}

func (f *FakePresenter) UpdatePresentation(ctx context.Context, scrim *models.Scrim, statusText string, removeInteractivity bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Updates = append(f.Updates, FakePresentationUpdate{
		ScrimID:             scrim.ScrimID,
		StatusText:          statusText,
		RemoveInteractivity: removeInteractivity,
	})
	return true
}

func (f *FakePresenter) RemovePresentation(ctx context.Context, scrimID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Removals = append(f.Removals, scrimID)
	return true
}
