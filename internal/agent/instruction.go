// Package agent implements the two bootstrap role agents and the join
// instruction they exchange over the command channel.
package agent

import (
	"fmt"
	"strings"
)

// joinMarker identifies a line carrying a join instruction. Anything else on
// the channel is noise and is ignored.
const joinMarker = "kubeadm join"

// joinLogTailLines is the number of trailing init-log lines that carry the
// join instruction. kubeadm prints the command over two lines joined by a
// backslash continuation; this is a positional contract with kubeadm's
// output format, pinned by TestExtractInstruction_TailContract.
const joinLogTailLines = 2

// Instruction is the opaque join command produced once by control-plane
// initialization. Immutable after capture; safe to resend on every retry.
type Instruction struct {
	raw string
}

// ExtractInstruction pulls the join instruction out of the captured
// control-plane init log. The instruction is the whitespace-collapsed
// concatenation of the log's trailing lines.
func ExtractInstruction(initLog string) (Instruction, error) {
	lines := strings.Split(strings.TrimRight(initLog, "\n"), "\n")
	if len(lines) < joinLogTailLines {
		return Instruction{}, fmt.Errorf("init log has %d lines, need at least %d", len(lines), joinLogTailLines)
	}

	tail := lines[len(lines)-joinLogTailLines:]
	for i, l := range tail {
		tail[i] = strings.TrimSpace(l)
	}
	return Instruction{raw: strings.Join(tail, " ")}, nil
}

// NewInstruction wraps a payload received off the channel.
func NewInstruction(payload string) Instruction {
	return Instruction{raw: payload}
}

// Valid reports whether the payload carries the join marker.
func (i Instruction) Valid() bool {
	return strings.Contains(i.raw, joinMarker)
}

// Payload is the raw single-line form sent over the channel.
func (i Instruction) Payload() string {
	return i.raw
}

// Command returns the executable form: line-continuation markers removed and
// whitespace normalized.
func (i Instruction) Command() string {
	unescaped := strings.ReplaceAll(i.raw, "\\", " ")
	return strings.Join(strings.Fields(unescaped), " ")
}
