package relay

import (
	"encoding/json"
	"os"
)

// State is the best-effort, non-authoritative UI navigation state persisted
// across restarts.
type State struct {
	SelectedConversationID uint `json:"selected_conversation_id"`
	CreatingNew            bool `json:"creating_new"`
}

type StateStore interface {
	Load() (State, error)
	Save(State) error
}

// FileStateStore keeps the state in a small JSON file next to the client.
type FileStateStore struct {
	Path string
}

func (f *FileStateStore) Load() (State, error) {
	var st State
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		// a corrupt state file is discarded, not fatal
		return State{}, nil
	}
	return st, nil
}

func (f *FileStateStore) Save(st State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0644)
}

// MemStateStore is the in-memory StateStore used by tests.
type MemStateStore struct {
	st State
}

func (m *MemStateStore) Load() (State, error) { return m.st, nil }
func (m *MemStateStore) Save(st State) error  { m.st = st; return nil }
