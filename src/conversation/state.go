package conversation

import "sync"

// Step is what a chat is expected to send next.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingCustomAmount
	StepAwaitingPackageChoice
)

func (s Step) String() string {
	switch s {
	case StepAwaitingCustomAmount:
		return "awaiting_custom_amount"
	case StepAwaitingPackageChoice:
		return "awaiting_package_choice"
	default:
		return "idle"
	}
}

// StateStore holds at most one pending input request per chat. Chats with
// no entry are idle.
type StateStore struct {
	mu     sync.Mutex
	byChat map[int64]Step
}

func NewStateStore() *StateStore {
	return &StateStore{byChat: make(map[int64]Step)}
}

func (s *StateStore) Get(chatID int64) Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byChat[chatID]
}

// Set replaces any pending request of the chat.
func (s *StateStore) Set(chatID int64, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step == StepIdle {
		delete(s.byChat, chatID)
		return
	}
	s.byChat[chatID] = step
}

func (s *StateStore) Clear(chatID int64) {
	s.Set(chatID, StepIdle)
}
