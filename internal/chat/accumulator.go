// Package chat consumes a streamed reply and maintains the single
// authoritative value of the in-progress assistant message.
package chat

import "strings"

// FailureNotice replaces the visible value when the transport fails
// mid-response. Partial content is kept aside, not shown.
const FailureNotice = "Could not reach backend. Please try again."

type State int

const (
	StateIdle State = iota
	StateReceiving
	StateComplete
	StateFailed
)

type framing int

const (
	framingUnknown framing = iota
	framingText
	framingEnvelope
)

// Accumulator folds decoded fragments into the current reply text. The
// framing mode locks on the first fragment that commits to a shape:
// a plain-text stream that later emits a JSON-looking line stays plain
// text, and an envelope stream buffers partial objects across fragment
// boundaries instead of flipping to raw mode.
//
// Every Feed, Complete, and Fail notifies the onUpdate callback exactly
// once with the full visible value, never a delta.
type Accumulator struct {
	state    State
	mode     framing
	visible  string
	buffer   string
	partial  string
	err      error
	onUpdate func(value string)
}

func NewAccumulator(onUpdate func(value string)) *Accumulator {
	return &Accumulator{onUpdate: onUpdate}
}

func (a *Accumulator) State() State { return a.state }

// Value returns the authoritative full text of the reply so far.
func (a *Accumulator) Value() string { return a.visible }

// Partial returns the text that had accumulated before a failure.
func (a *Accumulator) Partial() string { return a.partial }

// Err returns the transport error recorded by Fail.
func (a *Accumulator) Err() error { return a.err }

func (a *Accumulator) terminal() bool {
	return a.state == StateComplete || a.state == StateFailed
}

// Feed processes one decoded fragment.
func (a *Accumulator) Feed(fragment string) {
	if a.terminal() {
		return
	}
	a.state = StateReceiving

	switch a.mode {
	case framingUnknown:
		if fragment == "" {
			break
		}
		frag := Classify(fragment)
		switch {
		case frag.Kind == FragmentEnvelope:
			a.mode = framingEnvelope
			a.buffer = fragment
			a.drainEnvelopeBuffer()
		case looksLikeEnvelope(fragment):
			// JSON-shaped but incomplete; commit to envelope framing
			// and wait for the rest of the object.
			a.mode = framingEnvelope
			a.buffer = fragment
		default:
			a.mode = framingText
			a.visible += fragment
		}
	case framingText:
		a.visible += fragment
	case framingEnvelope:
		a.buffer += fragment
		a.drainEnvelopeBuffer()
	}
	a.notify()
}

// Complete marks the stream as cleanly finished. Any buffered envelope
// bytes get one final tolerant decode; a trailing object that still
// does not parse is discarded, matching how an incomplete text unit at
// true stream end is dropped.
func (a *Accumulator) Complete() {
	if a.terminal() {
		return
	}
	if a.mode == framingEnvelope && strings.TrimSpace(a.buffer) != "" {
		if reply, ok := decodeEnvelope(a.buffer); ok {
			a.visible = reply
		}
	}
	a.buffer = ""
	a.state = StateComplete
	a.notify()
}

// Fail records a transport error and replaces the visible value with
// the fixed failure notice.
func (a *Accumulator) Fail(err error) {
	if a.terminal() {
		return
	}
	a.partial = a.visible
	a.err = err
	a.visible = FailureNotice
	a.buffer = ""
	a.state = StateFailed
	a.notify()
}

func (a *Accumulator) notify() {
	if a.onUpdate != nil {
		a.onUpdate(a.visible)
	}
}

// drainEnvelopeBuffer applies every complete envelope line sitting in
// the buffer; the reply is cumulative, so the last one wins. A complete
// line that turns out not to be an envelope is appended to the visible
// value as raw text rather than dropped.
func (a *Accumulator) drainEnvelopeBuffer() {
	for {
		reply, rest, ok := decodeEnvelopeLines(a.buffer)
		if ok {
			a.visible = reply
		}
		a.buffer = rest
		if rest == "" {
			return
		}
		line, tail, cut := strings.Cut(rest, "\n")
		if !cut {
			// Partial object, wait for the next fragment.
			return
		}
		a.visible += line
		a.buffer = tail
	}
}
