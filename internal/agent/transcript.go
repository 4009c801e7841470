package agent

import "codeberg.org/algrv/codelab/internal/llm"

func NewTranscript() *Transcript {
	return &Transcript{}
}

// appends all messages in one step
func (t *Transcript) Append(msgs ...Message) {
	if len(msgs) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, msgs...)
}

// returns a copy of the messages
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)

	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.messages)
}

// returns the most recent message with the given role
func (t *Transcript) Last(role llm.Role) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == role {
			return t.messages[i], true
		}
	}

	return Message{}, false
}
