package handler

import (
	"github.com/victortrac/inputcore/internal/axis"
	"github.com/victortrac/inputcore/internal/model"
)

// RelToRelHandler rescales one EV_REL stream into another by a fixed
// gain, writing instantaneously — there is no button-style
// active/inactive state, a rel input is already an edge. Supplements
// spec §4.6's transducer set; no mapping_handler.py counterpart exists
// because the original only special-cases abs->rel, but the same
// fractional-remainder accumulator pattern carries over directly from
// axis.AbsToRel's Run loop.
type RelToRelHandler struct {
	Transducer *axis.RelToRel
	Target     Writer
	OutCode    uint16
}

func NewRelToRelHandler(transducer *axis.RelToRel, target Writer, outCode uint16) *RelToRelHandler {
	return &RelToRelHandler{Transducer: transducer, Target: target, OutCode: outCode}
}

func (r *RelToRelHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	scaled := r.Transducer.Convert(ev.Value)
	if scaled == 0 {
		return true, nil
	}
	if suppressed {
		return false, nil
	}
	return true, writeAndSyn(r.Target, model.EvRel, r.OutCode, scaled)
}

func (r *RelToRelHandler) Reset() {}
