package handler

import (
	"github.com/victortrac/inputcore/internal/axis"
	"github.com/victortrac/inputcore/internal/model"
)

// AbsToAbsHandler remaps one EV_ABS range onto another, applying expo
// shaping, and writes the result instantaneously (a position, not a
// velocity — there is nothing to rate-limit). Supplements spec §4.6's
// transducer set the same way RelToRelHandler does; built directly on
// axis.AbsToAbs.Convert.
type AbsToAbsHandler struct {
	Transducer *axis.AbsToAbs
	Target     Writer
	OutCode    uint16
	SrcMin     int32
	SrcMax     int32
	OutMin     int32
	OutMax     int32
}

func NewAbsToAbsHandler(transducer *axis.AbsToAbs, target Writer, outCode uint16, srcMin, srcMax, outMin, outMax int32) *AbsToAbsHandler {
	return &AbsToAbsHandler{
		Transducer: transducer, Target: target, OutCode: outCode,
		SrcMin: srcMin, SrcMax: srcMax, OutMin: outMin, OutMax: outMax,
	}
}

func (a *AbsToAbsHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	value, err := a.Transducer.Convert(ev.Value, a.SrcMin, a.SrcMax, a.OutMin, a.OutMax)
	if err != nil {
		return false, err
	}
	if suppressed {
		return false, nil
	}
	return true, writeAndSyn(a.Target, model.EvAbs, a.OutCode, value)
}

func (a *AbsToAbsHandler) Reset() {}
