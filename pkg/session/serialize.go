package session

import "encoding/json"

// wirePayload is the single JSON blob spec.md §4.5 describes: env, alias,
// and history serialized and restored together, atomically.
type wirePayload struct {
	EnvFrames []EnvFrame        `json:"envFrames"`
	Aliases   map[string]string `json:"aliases"`
	History   []string          `json:"history"`
}

// SaveStateToJSON serializes env/alias/history as one blob.
func (s *Session) SaveStateToJSON() string {
	payload := wirePayload{
		EnvFrames: s.Env.Frames(),
		Aliases:   s.Aliases.All(),
		History:   s.History.All(),
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// LoadStateFromJSON restores env/alias/history atomically. A
// partial/corrupt payload restores empties for every field, matching
// spec.md's "partial/corrupt payload restores empties" rule — it never
// applies a half-decoded payload.
func (s *Session) LoadStateFromJSON(raw []byte) error {
	var payload wirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.Env.LoadFrames(nil, s.User, s.Host)
		s.Aliases.Load(nil)
		s.History.Load(nil)
		return ErrInvalidPayload
	}
	s.Env.LoadFrames(payload.EnvFrames, s.User, s.Host)
	s.Aliases.Load(payload.Aliases)
	s.History.Load(payload.History)
	return nil
}
