package editor

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier receives user-facing messages. Implementations must not call back
// into the session synchronously.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

type NotifierFunc func(kind NoticeKind, message string)

func (f NotifierFunc) Notify(kind NoticeKind, message string) { f(kind, message) }

type nopNotifier struct{}

func (nopNotifier) Notify(NoticeKind, string) {}
