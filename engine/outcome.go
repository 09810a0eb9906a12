package engine

import (
	"github.com/tidwall/gjson"

	"github.com/wippyai/digest-playground/errors"
)

// Messages for failures produced on the host side rather than by the engine.
const (
	MessageMalformed = "malformed engine response"
	MessageNotReady  = "engine not ready"
)

// Outcome is the result of one engine invocation: either a success carrying
// the normalized text and its hash, or a failure carrying a message.
type Outcome struct {
	Text    string
	Hash    string
	Message string
	Failed  bool
}

// Success returns a successful outcome.
func Success(text, hash string) Outcome {
	return Outcome{Text: text, Hash: hash}
}

// Failure returns a failed outcome.
func Failure(message string) Outcome {
	return Outcome{Message: message, Failed: true}
}

// DecodeOutcome strictly decodes an engine payload. It never fails: anything
// other than {"error": "<non-empty>"} or {"text": "...", "hash": "..."} is
// reported as a MessageMalformed failure.
func DecodeOutcome(payload []byte) Outcome {
	out, err := ParseOutcome(payload)
	if err != nil {
		return Failure(MessageMalformed)
	}
	return out
}

// ParseOutcome is DecodeOutcome with the reason a payload was rejected.
func ParseOutcome(payload []byte) (Outcome, error) {
	if !gjson.ValidBytes(payload) {
		return Outcome{}, errors.InvalidData(errors.PhaseDecode, "payload is not valid JSON")
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return Outcome{}, errors.InvalidData(errors.PhaseDecode, "payload is not a JSON object")
	}

	if e := root.Get("error"); e.Exists() {
		switch {
		case e.Type == gjson.String && e.Str != "":
			return Failure(e.Str), nil
		case e.Type == gjson.Null, e.Type == gjson.False, e.Type == gjson.String:
			// falsy: fall through to the success fields
		default:
			return Outcome{}, errors.InvalidData(errors.PhaseDecode, "error field is "+e.Type.String())
		}
	}

	text, hash := root.Get("text"), root.Get("hash")
	if text.Type != gjson.String || hash.Type != gjson.String {
		return Outcome{}, errors.InvalidData(errors.PhaseDecode, "text and hash must both be strings")
	}
	return Success(text.Str, hash.Str), nil
}
