package multipart

import (
	"fmt"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
)

// State is the lifecycle state of a multipart session.
type State int

const (
	// StateNotStarted means no upload id exists yet.
	StateNotStarted State = iota
	// StateActive means the service holds an open upload.
	StateActive
	// StateCompleted means the object was assembled from its parts.
	StateCompleted
	// StateAborted means the upload was discarded.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

type event int

const (
	eventStart event = iota
	eventCreated
	eventCreateFailed
	eventSendPart
	eventPartFailed
	eventSourceFailed
	eventFinish
	eventCompleted
	eventCompleteFailed
	eventAbort
)

var eventNames = map[event]string{
	eventStart:          "start",
	eventCreated:        "created",
	eventCreateFailed:   "create failed",
	eventSendPart:       "send part",
	eventPartFailed:     "part failed",
	eventSourceFailed:   "source failed",
	eventFinish:         "finish",
	eventCompleted:      "completed",
	eventCompleteFailed: "complete failed",
	eventAbort:          "abort",
}

func (e event) String() string {
	return eventNames[e]
}

// call is the collaborator request a transition asks the session to make.
type call int

const (
	callNone call = iota
	callCreate
	callUploadPart
	callComplete
	callAbort
)

// transition returns the state after ev and the request to issue. Events
// that are not valid in state fail with ErrInvalidState.
func transition(state State, ev event) (State, call, error) {
	switch state {
	case StateNotStarted:
		switch ev {
		case eventStart:
			return StateNotStarted, callCreate, nil
		case eventCreated:
			return StateActive, callNone, nil
		case eventCreateFailed:
			return StateNotStarted, callNone, nil
		}
	case StateActive:
		switch ev {
		case eventSendPart:
			return StateActive, callUploadPart, nil
		case eventPartFailed, eventSourceFailed, eventAbort:
			return StateAborted, callAbort, nil
		case eventFinish:
			return StateActive, callComplete, nil
		case eventCompleted:
			return StateCompleted, callNone, nil
		case eventCompleteFailed:
			return StateActive, callNone, nil
		}
	}
	return state, callNone, s4errors.NewError("session", s4errors.CodeInvalidState,
		fmt.Errorf("cannot %s when %s", ev, state))
}
