package editor

// ConfirmFunc asks the author whether to abandon unsaved changes.
type ConfirmFunc func(prompt string) bool

// AlwaysConfirm is for callers that already asked (e.g. through a modal).
func AlwaysConfirm(string) bool { return true }

// guard lets navigation proceed when nothing is unsaved or the author confirms.
func guard(dirty bool, confirm ConfirmFunc, prompt string) error {
	if !dirty {
		return nil
	}
	if confirm != nil && confirm(prompt) {
		return nil
	}
	return ErrNavigationCancelled
}
