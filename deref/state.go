package deref

import (
	"errors"

	"golang.org/x/text/cases"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
)

// frame is the document currently being traversed.
type frame struct {
	// id is the document identity: a content fingerprint for the top-level
	// document, the loader's canonical ID for external documents
	id string
	// root is the unmodified document that local pointers resolve against
	root any
	// base locates relative external targets found in the document
	base string
}

// state is the per-call resolution record. It is never shared between calls.
type state struct {
	frames []frame

	// history holds the visitation markers of references being resolved,
	// outermost first; visiting indexes it
	history  []string
	visiting map[string]bool

	missing    []string
	missingSet map[string]bool

	circular bool
	err      error

	folder cases.Caser
}

func newState(top frame) *state {
	return &state{
		frames:     []frame{top},
		visiting:   make(map[string]bool),
		missingSet: make(map[string]bool),
		folder:     cases.Fold(),
	}
}

func (s *state) current() frame {
	return s.frames[len(s.frames)-1]
}

func (s *state) pushFrame(f frame) {
	s.frames = append(s.frames, f)
}

func (s *state) popFrame() {
	s.frames = s.frames[:len(s.frames)-1]
}

// localMarker identifies a local reference within the current document.
func (s *state) localMarker(ref string) string {
	return s.current().id + ":" + ref
}

// externalMarker identifies an external document regardless of letter case.
func (s *state) externalMarker(id string) string {
	return s.folder.String(id)
}

// enter records marker as being resolved. Revisiting a marker that is
// still on the stack is a circular reference and fails the call.
func (s *state) enter(marker, ref, refType string) error {
	if s.visiting[marker] {
		chain := make([]string, 0, len(s.history)+1)
		chain = append(chain, s.history...)
		chain = append(chain, marker)
		return s.fail(&dereferrors.ReferenceError{
			Ref:        ref,
			RefType:    refType,
			IsCircular: true,
			Chain:      chain,
		})
	}
	s.visiting[marker] = true
	s.history = append(s.history, marker)
	return nil
}

// leave pops the innermost marker.
func (s *state) leave() {
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	delete(s.visiting, last)
}

func (s *state) addMissing(ref string) {
	if s.missingSet[ref] {
		return
	}
	s.missingSet[ref] = true
	s.missing = append(s.missing, ref)
}

func (s *state) missingRefs() []string {
	if len(s.missing) == 0 {
		return nil
	}
	return append([]string(nil), s.missing...)
}

// fail records the first terminal error and returns err.
func (s *state) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	if errors.Is(err, dereferrors.ErrCircularReference) {
		s.circular = true
	}
	return err
}

// aborted reports whether no further substitution may occur.
func (s *state) aborted() bool {
	return s.circular || s.err != nil
}
