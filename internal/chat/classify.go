package chat

import (
	"encoding/json"
	"strings"
)

// FragmentKind tags how a decoded fragment should be interpreted. The
// service streams either bare text deltas or newline-delimited JSON
// envelopes whose reply field carries the whole answer so far; the
// classifier makes that decision explicit instead of probing with a
// decode-and-catch.
type FragmentKind int

const (
	FragmentRawText FragmentKind = iota
	FragmentEnvelope
)

type Fragment struct {
	Kind FragmentKind
	// Text is the raw delta for FragmentRawText, or the cumulative
	// reply for FragmentEnvelope.
	Text string
}

type envelope struct {
	Reply *string `json:"reply"`
}

// Classify inspects a single fragment. A fragment is an envelope only
// when it decodes as one or more complete JSON objects carrying a reply
// field; anything else is raw text.
func Classify(text string) Fragment {
	if looksLikeEnvelope(text) {
		if reply, _, ok := decodeEnvelopeLines(text); ok {
			return Fragment{Kind: FragmentEnvelope, Text: reply}
		}
	}
	return Fragment{Kind: FragmentRawText, Text: text}
}

func looksLikeEnvelope(text string) bool {
	return strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "{")
}

// decodeEnvelopeLines decodes as many complete envelope lines from buf
// as possible. It returns the reply of the last decoded envelope, the
// undecoded remainder (a partial line still waiting for bytes), and
// whether at least one envelope was decoded.
func decodeEnvelopeLines(buf string) (reply, rest string, ok bool) {
	rest = buf
	for rest != "" {
		line, tail, cut := strings.Cut(rest, "\n")
		if r, decoded := decodeEnvelope(line); decoded {
			reply = r
			ok = true
			if cut {
				rest = tail
				continue
			}
			rest = ""
			break
		}
		if !cut {
			// Partial object at the end of the buffer; keep it.
			break
		}
		// A complete line that is not an envelope: give up on the
		// whole remainder so the caller can fall back to raw text.
		return reply, rest, ok
	}
	return reply, rest, ok
}

func decodeEnvelope(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		return "", false
	}
	var env envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil || env.Reply == nil {
		return "", false
	}
	return *env.Reply, true
}
