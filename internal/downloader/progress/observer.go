// Package progress reports transfer lifecycle events.
//
// Every file produces exactly one OnStart, zero or more OnProgress calls and
// exactly one terminal OnComplete or OnError. A single Observer is shared by
// all transfers of a download, so implementations must be safe for
// concurrent use.
package progress

// Observer receives the lifecycle events of file transfers.
type Observer interface {
	OnStart(name string, size int64)
	OnProgress(name string, written, total int64)
	OnComplete(name string)
	OnError(name, message string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) OnStart(string, int64) {}
func (Nop) OnProgress(string, int64, int64) {}
func (Nop) OnComplete(string) {}
func (Nop) OnError(string, string) {}

// Multi forwards each event to every observer in order.
type Multi []Observer

func (m Multi) OnStart(name string, size int64) {
	for _, o := range m {
		o.OnStart(name, size)
	}
}

func (m Multi) OnProgress(name string, written, total int64) {
	for _, o := range m {
		o.OnProgress(name, written, total)
	}
}

func (m Multi) OnComplete(name string) {
	for _, o := range m {
		o.OnComplete(name)
	}
}

func (m Multi) OnError(name, message string) {
	for _, o := range m {
		o.OnError(name, message)
	}
}
