// Package speech gives the operator-facing spoken prompts ("please speak
// to mark your attendance"). Prompts are best effort: a missing TTS engine
// degrades to console output and never blocks recognition.
package speech

import (
	"fmt"
	"os/exec"
)

// Announcer speaks a short message to the subject.
type Announcer interface {
	Say(text string)
}

// Console prints the message instead of speaking it.
type Console struct{}

func (Console) Say(text string) {
	fmt.Printf(">> %s\n", text)
}

// Espeak shells out to the espeak TTS engine. Errors are swallowed; a
// failed prompt only costs the subject a verbal cue.
type Espeak struct{}

func (Espeak) Say(text string) {
	// espeak stumbles over diacritics in some voices, and roster names
	// regularly carry them.
	if err := exec.Command("espeak", RemoveDiacritics(text)).Run(); err != nil {
		fmt.Printf(">> %s\n", text)
	}
}

// New returns an espeak-backed announcer when the binary is on PATH,
// falling back to console output.
func New() Announcer {
	if _, err := exec.LookPath("espeak"); err == nil {
		return Espeak{}
	}
	return Console{}
}
