package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"studio-ai/internal/domain"
	"studio-ai/internal/imageinput"
)

var (
	ErrBusy               = errors.New("action already in progress")
	ErrValidation         = errors.New("validation failed")
	ErrProductRequired    = fmt.Errorf("%w: product image is required", ErrValidation)
	ErrBackgroundRequired = fmt.Errorf("%w: background description is required", ErrValidation)
	ErrNoImage            = errors.New("model returned no image")
)

// Generator is the remote side of the studio: background analysis and
// product photo generation.
type Generator interface {
	Analyze(ctx context.Context, productImage imageinput.EncodedImage) (string, error)
	Generate(ctx context.Context, settings domain.Settings) (*imageinput.EncodedImage, error)
}

// State is a copy of everything the UI renders.
type State struct {
	Settings   domain.Settings
	Analyzing  bool
	Generating bool
	Error      string
	Result     *domain.Result
	Version    uint64
	UpdatedAt  time.Time

	imageRevs [3]uint64
}

// ImageRevision is the Version at which the slot last changed. Zero means
// the slot was never set.
func (st State) ImageRevision(slot domain.Slot) uint64 {
	if i := slotIndex(slot); i >= 0 {
		return st.imageRevs[i]
	}
	return 0
}

func slotIndex(slot domain.Slot) int {
	for i, s := range domain.Slots() {
		if s == slot {
			return i
		}
	}
	return -1
}

type Options struct {
	Generator Generator
	Logger    *slog.Logger
	Now       func() time.Time
}

// Session owns the single studio state and notifies subscribers after every
// change.
type Session struct {
	gen    Generator
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Session{
		gen:    opts.Generator,
		logger: logger,
		now:    now,
		state: State{
			Settings:  domain.DefaultSettings(),
			UpdatedAt: now(),
		},
		subs: make(map[int]func(State)),
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive a snapshot after each change. Calls may
// arrive concurrently; Version orders them. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// apply runs fn under the lock. When fn returns an error nothing changes and
// no one is notified.
func (s *Session) apply(fn func(*State) error) (State, error) {
	s.mu.Lock()
	next := s.state
	next.Version = s.state.Version + 1
	if err := fn(&next); err != nil {
		current := s.state
		s.mu.Unlock()
		return current, err
	}
	next.UpdatedAt = s.now()
	s.state = next

	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return next, nil
}

// Update mutates the settings in place of the user; it never touches the
// busy flags or the result.
func (s *Session) Update(fn func(*domain.Settings)) State {
	st, _ := s.apply(func(st *State) error {
		fn(&st.Settings)
		return nil
	})
	return st
}

// ImageUpdate replaces one slot; a nil Image removes it.
type ImageUpdate struct {
	Slot  domain.Slot
	Image *imageinput.EncodedImage
}

// SetImage replaces one image slot; nil removes it.
func (s *Session) SetImage(slot domain.Slot, img *imageinput.EncodedImage) error {
	return s.SetImages(ImageUpdate{Slot: slot, Image: img})
}

// SetImages applies all updates as one change, or none of them when a slot
// is unknown. A pending read failure is cleared since the user has moved on.
func (s *Session) SetImages(updates ...ImageUpdate) error {
	_, err := s.apply(func(st *State) error {
		for _, u := range updates {
			if err := st.Settings.SetImage(u.Slot, u.Image); err != nil {
				return err
			}
			st.imageRevs[slotIndex(u.Slot)] = st.Version
		}
		if st.Error == MsgReadFailed {
			st.Error = ""
		}
		return nil
	})
	return err
}

func (s *Session) SetBackground(text string) {
	s.Update(func(st *domain.Settings) { st.BackgroundPrompt = text })
}

func (s *Session) SetMood(m domain.Mood) error {
	m, err := domain.ParseMood(string(m))
	if err != nil {
		return err
	}
	s.Update(func(st *domain.Settings) { st.Mood = m })
	return nil
}

func (s *Session) SetAspectRatio(r domain.AspectRatio) error {
	r, err := domain.ParseAspectRatio(string(r))
	if err != nil {
		return err
	}
	s.Update(func(st *domain.Settings) { st.AspectRatio = r })
	return nil
}

func (s *Session) SetError(msg string) {
	_, _ = s.apply(func(st *State) error {
		st.Error = msg
		return nil
	})
}

type action int

const (
	actionAnalyze action = iota
	actionGenerate
)

func (a action) String() string {
	if a == actionGenerate {
		return "generate"
	}
	return "analyze"
}

func (st *State) flag(a action) *bool {
	if a == actionGenerate {
		return &st.Generating
	}
	return &st.Analyzing
}

// acquire sets the busy flag for a and clears the error in one change. The
// returned release must be deferred by the caller.
func (s *Session) acquire(a action) (func(), error) {
	_, err := s.apply(func(st *State) error {
		busy := st.flag(a)
		if *busy {
			return fmt.Errorf("%s: %w", a, ErrBusy)
		}
		*busy = true
		st.Error = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_, _ = s.apply(func(st *State) error {
				*st.flag(a) = false
				return nil
			})
		})
	}, nil
}
