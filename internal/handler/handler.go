// Package handler implements the compiled handler graph of spec §4.3:
// the concrete InputEventHandler nodes a Preset compiles into, each
// wrapping either an internal/axis transducer or an internal/macro
// tree and exposing the internal/context.Handler contract
// (Notify/Reset) the dispatcher and HierarchyHandler drive.
//
// Grounded throughout on
// original_source/inputremapper/injection/consumers/mapping_handler.py:
// CombinationHandler, KeyHandler, MacroHandler, HierarchyHandler,
// AbsToBtnHandler, RelToBtnHandler and AbsToRelHandler all have a
// same-named counterpart here. RelToRelHandler, AbsToAbsHandler and
// RelToAbsHandler supplement the set for the axis-to-axis directions
// that mapping_handler.py's button-focused originals lack.
package handler

import (
	"github.com/victortrac/inputcore/internal/model"
)

// Writer is the write half of an evdevio.Sink: emit one event, then
// flush a SYN_REPORT frame. Handlers that produce output events talk
// to this instead of a concrete *evdevio.Sink so they can be unit
// tested against a fake.
type Writer interface {
	Write(evType, code uint16, value int32) error
	Syn() error
}

// writeAndSyn is the common "emit one event, then flush" sequence
// every handler in this package ends with.
func writeAndSyn(w Writer, evType, code uint16, value int32) error {
	if err := w.Write(evType, code, value); err != nil {
		return err
	}
	return w.Syn()
}

// typeAndCodeOf returns the (type, code) dispatch key of ev.
func typeAndCodeOf(ev model.InputEvent) model.TypeAndCode {
	return model.TypeAndCode{Type: ev.Type, Code: ev.Code}
}
