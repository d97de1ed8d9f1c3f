package domain

import "fmt"

// transitions lists the legal target states for each source state.
type transitions[S ~string] map[S][]S

func (t transitions[S]) check(from, to S) error {
	if _, known := t[to]; !known {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from == to {
		return fmt.Errorf("%w: %s", ErrAlreadyInState, to)
	}
	for _, allowed := range t[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
