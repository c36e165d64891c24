package telegram

import (
	"sync"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// UserState is where a chat is in a multi-step command
type UserState struct {
	State      string
	Collection controls.Address
}

// StateManager manages per-chat states
type StateManager struct {
	mu     sync.RWMutex
	states map[int64]*UserState
}

// NewStateManager creates a new state manager
func NewStateManager() *StateManager {
	return &StateManager{
		states: make(map[int64]*UserState),
	}
}

func (sm *StateManager) Set(chatID int64, state string, collection controls.Address) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.states[chatID] = &UserState{State: state, Collection: collection}
}

func (sm *StateManager) Get(chatID int64) *UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.states[chatID]
}

func (sm *StateManager) Clear(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.states, chatID)
}

// State constants
const (
	StateWaitCollection = "wait_collection"
	StateWaitWallet     = "wait_wallet"
)
