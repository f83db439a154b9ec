package utils

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// labelWidth fits a trailing atlas path fragment next to the bar.
const labelWidth = 28

// Progress renders an extraction progress bar on stderr. It stays silent
// when disabled or when stderr is not a terminal, so piped runs produce
// clean output. Update is safe to call from multiple workers.
type Progress struct {
	container *mpb.Progress
	bar       *mpb.Bar

	mu    sync.Mutex
	label string
}

// NewProgress builds a bar for total units of work. A no-op bar is
// returned when rendering is off.
func NewProgress(total int, enabled bool) *Progress {
	p := &Progress{}
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return p
	}

	fmt.Fprintln(os.Stderr)
	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(56),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return p.currentLabel() }, decor.WC{W: labelWidth, C: decor.DindentRight}),
			decor.CountersNoUnit(" %d/%d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Elapsed(decor.ET_STYLE_MMSS, decor.WC{W: 6}),
		),
	)
	return p
}

// Update advances the bar to done units and shows the asset currently in
// flight.
func (p *Progress) Update(done int, asset string) {
	if p.bar == nil {
		return
	}
	p.mu.Lock()
	p.label = asset
	p.mu.Unlock()
	p.bar.SetCurrent(int64(done))
}

// Finish waits for the final render and restores the cursor position.
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}
	p.bar.Abort(false)
	p.container.Wait()
	fmt.Fprintln(os.Stderr)
}

// currentLabel truncates long atlas paths from the front, keeping the
// distinguishing tail of the name visible.
func (p *Progress) currentLabel() string {
	p.mu.Lock()
	label := p.label
	p.mu.Unlock()

	if len(label) > labelWidth {
		return ".." + label[len(label)-(labelWidth-2):]
	}
	return label
}
