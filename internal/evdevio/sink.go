package evdevio

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request codes for /dev/uinput, lifted from <linux/uinput.h> the
// same way bnema-uinputd-go/internal/uinput/device.go does.
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiDevSetup   = 0x405c5503
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
	uiSetAbsBit  = 0x40045567
	uiAbsSetup   = 0x401c5504

	busVirtual = 0x06
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uiSetupStruct struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

type absInfoRaw struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

type uiAbsSetupStruct struct {
	Code uint16
	_    [2]byte // padding to align AbsInfo
	Abs  absInfoRaw
}

// AxisCapability declares an EV_ABS code's absinfo when the sink needs
// to expose an absolute axis (mostly relevant to the gamepad sink).
type AxisCapability struct {
	Code                 uint16
	Min, Max, Fuzz, Flat int32
}

// Capabilities is the capability set a sink is created with: for each
// event type, the list of codes (and, for EV_ABS, the axis ranges).
type Capabilities struct {
	Keys []uint16
	Rel  []uint16
	Abs  []AxisCapability
}

// Sink is the write side of spec §6's "UInput sinks (output)".
type Sink struct {
	mu   sync.Mutex
	fd   *os.File
	name string
	caps Capabilities
}

// CreateSink opens /dev/uinput and declares the given name and
// capability set (spec §6). Grounded on
// bnema-uinputd-go's New()/setup() ioctl sequence.
func CreateSink(name string, caps Capabilities) (*Sink, error) {
	fd, err := os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/uinput: %w (are you in the input group?)", err)
	}

	s := &Sink{fd: fd, name: name, caps: caps}
	if err := s.setup(); err != nil {
		fd.Close()
		return nil, fmt.Errorf("uinput setup for %q: %w", name, err)
	}
	return s, nil
}

func (s *Sink) setup() error {
	if len(s.caps.Keys) > 0 {
		if err := s.ioctl(uiSetEvBit, uintptr(evKey)); err != nil {
			return fmt.Errorf("set EV_KEY: %w", err)
		}
		for _, code := range s.caps.Keys {
			if err := s.ioctl(uiSetKeyBit, uintptr(code)); err != nil {
				return fmt.Errorf("set KEYBIT %d: %w", code, err)
			}
		}
	}

	if len(s.caps.Rel) > 0 {
		if err := s.ioctl(uiSetEvBit, uintptr(evRel)); err != nil {
			return fmt.Errorf("set EV_REL: %w", err)
		}
		for _, code := range s.caps.Rel {
			if err := s.ioctl(uiSetRelBit, uintptr(code)); err != nil {
				return fmt.Errorf("set RELBIT %d: %w", code, err)
			}
		}
	}

	if len(s.caps.Abs) > 0 {
		if err := s.ioctl(uiSetEvBit, uintptr(evAbs)); err != nil {
			return fmt.Errorf("set EV_ABS: %w", err)
		}
		for _, axis := range s.caps.Abs {
			if err := s.ioctl(uiSetAbsBit, uintptr(axis.Code)); err != nil {
				return fmt.Errorf("set ABSBIT %d: %w", axis.Code, err)
			}
			setup := uiAbsSetupStruct{
				Code: axis.Code,
				Abs: absInfoRaw{
					Minimum: axis.Min,
					Maximum: axis.Max,
					Fuzz:    axis.Fuzz,
					Flat:    axis.Flat,
				},
			}
			if err := s.ioctlPtr(uiAbsSetup, unsafe.Pointer(&setup)); err != nil {
				return fmt.Errorf("UI_ABS_SETUP %d: %w", axis.Code, err)
			}
		}
	}

	setup := uiSetupStruct{
		ID: inputID{Bustype: busVirtual, Vendor: 0x1209, Product: 0x0001, Version: 1},
	}
	copy(setup.Name[:], s.name)
	if err := s.ioctlPtr(uiDevSetup, unsafe.Pointer(&setup)); err != nil {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}

	return s.ioctl(uiDevCreate, 0)
}

func (s *Sink) ioctl(req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, s.fd.Fd(), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *Sink) ioctlPtr(req uintptr, p unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, s.fd.Fd(), req, uintptr(p))
	if errno != 0 {
		return errno
	}
	return nil
}

const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
)

type inputEventRaw struct {
	Sec, Usec int64
	Type      uint16
	Code      uint16
	Value     int32
}

// Write emits a single (type, code, value) event. Callers must call
// Syn() afterward to flush a report frame (spec §6).
func (s *Sink) Write(evType, code uint16, value int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := inputEventRaw{Type: evType, Code: code, Value: value}
	_, err := s.fd.Write((*[unsafe.Sizeof(inputEventRaw{})]byte)(unsafe.Pointer(&ev))[:])
	return err
}

// Syn writes an EV_SYN/SYN_REPORT barrier.
func (s *Sink) Syn() error {
	return s.Write(evSyn, 0, 0)
}

// CanEmit reports whether this sink was declared capable of the given
// (type, code) pair.
func (s *Sink) CanEmit(evType, code uint16) bool {
	switch evType {
	case evKey:
		for _, k := range s.caps.Keys {
			if k == code {
				return true
			}
		}
	case evRel:
		for _, r := range s.caps.Rel {
			if r == code {
				return true
			}
		}
	case evAbs:
		for _, a := range s.caps.Abs {
			if a.Code == code {
				return true
			}
		}
	}
	return false
}

func (s *Sink) Capabilities() Capabilities { return s.caps }

// AxisRange returns the [min, max] this sink declared for an EV_ABS
// code at creation time, used by internal/compiler to size AbsToAbs
// and RelToAbs output ranges.
func (s *Sink) AxisRange(code uint16) (min, max int32, ok bool) {
	for _, a := range s.caps.Abs {
		if a.Code == code {
			return a.Min, a.Max, true
		}
	}
	return 0, 0, false
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fd == nil {
		return nil
	}
	_ = s.ioctl(uiDevDestroy, 0)
	err := s.fd.Close()
	s.fd = nil
	return err
}
