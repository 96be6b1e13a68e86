package rustc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// reasonCompilerMessage tags the cargo envelope that wraps a rustc diagnostic.
// Cargo emits other reasons too ("compiler-artifact", "build-script-executed",
// "build-finished"); those are filtered, not errors.
const reasonCompilerMessage = "compiler-message"

// envelope is the cargo wrapper. The "message" field is kept raw because the
// same key holds a plain string in bare rustc records.
type envelope struct {
	Reason  string          `json:"reason"`
	Message json.RawMessage `json:"message"`
}

// Decode parses one line of the diagnostic stream.
//
// Returns (msg, nil) for a diagnostic record, (nil, nil) for lines that are
// legitimately not diagnostics (blank lines, plain-text output, cargo
// envelopes with a non-message reason), and (nil, err) for malformed JSON.
func Decode(line []byte) (*Message, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}
	// cargo/rustc прослаивают JSON обычным текстом (panics, статусные строки)
	if line[0] != '{' {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decode diagnostic record: %w", err)
	}

	if env.Reason != "" {
		if env.Reason != reasonCompilerMessage {
			return nil, nil
		}
		if len(env.Message) == 0 {
			return nil, nil
		}
		var msg Message
		if err := json.Unmarshal(env.Message, &msg); err != nil {
			return nil, fmt.Errorf("decode compiler-message payload: %w", err)
		}
		return &msg, nil
	}

	// Bare rustc record (--error-format=json), no envelope.
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("decode diagnostic record: %w", err)
	}
	return &msg, nil
}
