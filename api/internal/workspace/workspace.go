// Package workspace holds the transient state of one solving session:
// problem input, solution text and request status.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"linearsolve/api/internal/solver"
)

type Status int

const (
	Idle Status = iota
	InFlight
	Settled
)

func (s Status) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Settled:
		return "settled"
	default:
		return "idle"
	}
}

const (
	// FailedMessage is shown instead of a solution when the solve failed.
	FailedMessage = "Xatolik yuz berdi. Iltimos, qaytadan urinib ko'ring."
	// NotFoundMessage is shown when the model answered with no text.
	NotFoundMessage = "Kechirasiz, yechim topilmadi."
)

var (
	ErrEmptyInput = errors.New("workspace: text or image is required")
	ErrBusy       = errors.New("workspace: solve already in progress")
)

// View is a consistent snapshot of a Workspace.
type View struct {
	Text     string
	Image    string // data URI
	Solution string
	Status   Status
	Failed   bool
}

func (v View) Problem() solver.Problem { return solver.Problem{Text: v.Text, Image: v.Image} }
func (v View) HasSolution() bool       { return v.Solution != "" }
func (v View) CanSubmit() bool         { return v.Status != InFlight && !v.Problem().Empty() }

// Workspace. Only one solve may be in flight; a second Solve gets ErrBusy.
type Workspace struct {
	mu       sync.Mutex
	text     string
	image    string
	solution string
	status   Status
	failed   bool
	touched  time.Time
}

func New() *Workspace {
	return &Workspace{touched: time.Now()}
}

func (w *Workspace) SetText(text string) {
	w.mu.Lock()
	w.text = text
	w.touched = time.Now()
	w.mu.Unlock()
}

func (w *Workspace) SetImage(dataURL string) {
	w.mu.Lock()
	w.image = dataURL
	w.touched = time.Now()
	w.mu.Unlock()
}

func (w *Workspace) RemoveImage() { w.SetImage("") }

// Clear resets text, image and solution together.
func (w *Workspace) Clear() {
	w.mu.Lock()
	w.text, w.image, w.solution = "", "", ""
	w.failed = false
	if w.status == Settled {
		w.status = Idle
	}
	w.touched = time.Now()
	w.mu.Unlock()
}

func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view()
}

// view expects w.mu held.
func (w *Workspace) view() View {
	return View{
		Text:     w.text,
		Image:    w.image,
		Solution: w.solution,
		Status:   w.status,
		Failed:   w.failed,
	}
}

func (w *Workspace) lastTouched() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched
}

// Solve sends the current input to s and stores the outcome as the solution.
// Empty input never reaches the solver. A solver error is stored as
// FailedMessage and is not returned: the caller only sees ErrEmptyInput/ErrBusy.
func (w *Workspace) Solve(ctx context.Context, s solver.Solver) (View, error) {
	w.mu.Lock()
	p := solver.Problem{Text: w.text, Image: w.image}
	if p.Empty() {
		w.mu.Unlock()
		return View{}, ErrEmptyInput
	}
	if w.status == InFlight {
		w.mu.Unlock()
		return View{}, ErrBusy
	}
	w.status = InFlight
	w.solution = ""
	w.failed = false
	w.mu.Unlock()

	out, err := s.Solve(ctx, p)

	w.mu.Lock()
	switch {
	case err != nil:
		w.solution = FailedMessage
		w.failed = true
	case out == "":
		w.solution = NotFoundMessage
	default:
		w.solution = out
	}
	w.status = Settled
	w.touched = time.Now()
	v := w.view()
	w.mu.Unlock()

	return v, nil
}
