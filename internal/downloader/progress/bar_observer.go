package progress

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// BarObserver renders one progress bar per file. Bars are created on the
// first OnStart for a name and dropped on its terminal event.
type BarObserver struct {
	out io.Writer

	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func NewBarObserver(out io.Writer) *BarObserver {
	return &BarObserver{
		out:  out,
		bars: make(map[string]*progressbar.ProgressBar),
	}
}

func (o *BarObserver) OnStart(name string, size int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.bars[name]; ok {
		return
	}

	o.bars[name] = progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(o.out),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(o.out, "\n")
		}),
	)
}

func (o *BarObserver) OnProgress(name string, written, _ int64) {
	bar := o.bar(name)
	if bar == nil {
		return
	}

	_ = bar.Set64(written)
}

func (o *BarObserver) OnComplete(name string) {
	bar := o.take(name)
	if bar == nil {
		return
	}

	_ = bar.Finish()
}

func (o *BarObserver) OnError(name, message string) {
	bar := o.take(name)
	if bar == nil {
		return
	}

	bar.Describe(name + ": " + message)
	_ = bar.Exit()
	_, _ = io.WriteString(o.out, "\n")
}

// Active returns the number of bars currently rendered.
func (o *BarObserver) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.bars)
}

func (o *BarObserver) bar(name string) *progressbar.ProgressBar {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.bars[name]
}

func (o *BarObserver) take(name string) *progressbar.ProgressBar {
	o.mu.Lock()
	defer o.mu.Unlock()

	bar := o.bars[name]
	delete(o.bars, name)

	return bar
}
