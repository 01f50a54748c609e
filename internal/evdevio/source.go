// Package evdevio adapts github.com/holoplot/go-evdev to the two
// External Interfaces of spec.md §6: the evdev source device and the
// UInput sink. The source half follows hook_linux.go's usage of
// go-evdev (Open/CapableTypes/CapableEvents/ReadOne/Grab) closely; the
// sink half is grounded on bnema-uinputd-go's ioctl sequence for the
// parts go-evdev's public surface doesn't wrap.
package evdevio

import (
	"fmt"

	evdev "github.com/holoplot/go-evdev"

	"github.com/victortrac/inputcore/internal/model"
)

// AbsInfo mirrors the per-axis metadata named in spec §6.
type AbsInfo struct {
	Value, Min, Max, Fuzz, Flat, Resolution int32
}

// SourceDevice is the read side of spec §6's "Source device (input)".
type SourceDevice struct {
	dev  *evdev.InputDevice
	path string
	id   model.DeviceID
}

// Open opens the evdev node at path without grabbing it; call Grab to
// take exclusive access (spec §1: "opens evdev source devices
// exclusively").
func Open(path string) (*SourceDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &SourceDevice{
		dev:  dev,
		path: path,
		id:   model.HashDevicePath(path),
	}
	return s, nil
}

// Grab requests exclusive access; callers must release with Ungrab on
// shutdown so other processes can use the device again.
func (s *SourceDevice) Grab() error {
	return s.dev.Grab()
}

// Ungrab releases exclusive access.
func (s *SourceDevice) Ungrab() error {
	return s.dev.Release()
}

func (s *SourceDevice) Close() error {
	return s.dev.Close()
}

func (s *SourceDevice) Path() string { return s.path }

func (s *SourceDevice) ID() model.DeviceID { return s.id }

// Name returns the kernel-reported device name.
func (s *SourceDevice) Name() string {
	name, err := s.dev.Name()
	if err != nil {
		return s.path
	}
	return name
}

// CapableTypes lists the event types this source can produce.
func (s *SourceDevice) CapableTypes() []uint16 {
	types := s.dev.CapableTypes()
	out := make([]uint16, len(types))
	for i, t := range types {
		out[i] = uint16(t)
	}
	return out
}

// CapableEvents lists the codes this source can produce for a given
// event type.
func (s *SourceDevice) CapableEvents(evType uint16) []uint16 {
	codes := s.dev.CapableEvents(evdev.EvType(evType))
	out := make([]uint16, len(codes))
	for i, c := range codes {
		out[i] = uint16(c)
	}
	return out
}

// AbsInfo returns the absinfo metadata for an EV_ABS code (spec §6).
func (s *SourceDevice) AbsInfo(code uint16) (AbsInfo, error) {
	info, err := s.dev.AbsInfo(evdev.EvCode(code))
	if err != nil {
		return AbsInfo{}, fmt.Errorf("absinfo for code %d: %w", code, err)
	}
	return AbsInfo{
		Value:      info.Value,
		Min:        info.Minimum,
		Max:        info.Maximum,
		Fuzz:       info.Fuzz,
		Flat:       info.Flat,
		Resolution: info.Resolution,
	}, nil
}

// Leds returns the currently lit LED codes, used by if_capslock/if_numlock.
func (s *SourceDevice) Leds() ([]uint16, error) {
	leds, err := s.dev.Leds()
	if err != nil {
		return nil, fmt.Errorf("leds: %w", err)
	}
	out := make([]uint16, len(leds))
	for i, l := range leds {
		out[i] = uint16(l)
	}
	return out, nil
}

// ReadOne blocks for the next raw event. EventReader is responsible for
// the EV_SYN/EV_MSC/auto-repeat filtering named in spec §4.1 — this
// layer stays a thin passthrough.
func (s *SourceDevice) ReadOne() (model.InputEvent, error) {
	ev, err := s.dev.ReadOne()
	if err != nil {
		return model.InputEvent{}, err
	}
	return model.InputEvent{
		Type:          uint16(ev.Type),
		Code:          uint16(ev.Code),
		Value:         ev.Value,
		TimestampUsec: uint64(ev.Time.Sec)*1_000_000 + uint64(ev.Time.Usec),
		Origin:        s.id,
	}, nil
}
