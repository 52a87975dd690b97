// Package envelope holds the ADSR parameters, the velocity adjustment derived
// from them and the polyline sketch of the envelope shape.
package envelope

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Param names one of the four envelope parameters.
type Param string

const (
	Attack  Param = "attack"
	Decay   Param = "decay"
	Sustain Param = "sustain"
	Release Param = "release"
)

// Params lists the parameters in display order.
var Params = []Param{Attack, Decay, Sustain, Release}

// DefaultValue is the starting value of every parameter.
const DefaultValue = 0.5

// maxVelocity is the MIDI velocity ceiling applied by AdjustVelocity.
const maxVelocity = 127

// ParseParam resolves a parameter name, case-insensitively.
func ParseParam(name string) (Param, error) {
	p := Param(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Params {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// Values is a copy of the four parameters. Attack, Decay and Release are
// durations in seconds; Sustain is a level, a fraction of peak amplitude.
type Values struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// Get returns the value of p.
func (v Values) Get(p Param) float64 {
	switch p {
	case Attack:
		return v.Attack
	case Decay:
		return v.Decay
	case Sustain:
		return v.Sustain
	case Release:
		return v.Release
	}
	return math.NaN()
}

// Model is the single store of the envelope parameters. Every field stays a
// finite number in [0, 1]. A Model is not safe for concurrent use; the
// session serialises access to it.
type Model struct {
	v Values
}

// NewModel returns a model with every parameter at DefaultValue.
func NewModel() *Model {
	return &Model{v: Values{
		Attack:  DefaultValue,
		Decay:   DefaultValue,
		Sustain: DefaultValue,
		Release: DefaultValue,
	}}
}

// Snapshot returns a copy of the current parameters.
func (m *Model) Snapshot() Values { return m.v }

func (m *Model) Attack() float64  { return m.v.Attack }
func (m *Model) Decay() float64   { return m.v.Decay }
func (m *Model) Sustain() float64 { return m.v.Sustain }
func (m *Model) Release() float64 { return m.v.Release }

// SetParameter parses raw as a floating point number, clamps it to [0, 1]
// and stores it under name. On any failure the model is left unchanged.
func (m *Model) SetParameter(name, raw string) error {
	p, err := ParseParam(name)
	if err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return &InvalidParameterError{Param: p, Raw: raw, Err: unwrapNumError(err)}
	}
	return m.set(p, raw, f)
}

// Set stores an already numeric value, with the same validation and
// clamping as SetParameter.
func (m *Model) Set(p Param, value float64) error {
	p, err := ParseParam(string(p))
	if err != nil {
		return err
	}
	return m.set(p, strconv.FormatFloat(value, 'g', -1, 64), value)
}

func (m *Model) set(p Param, raw string, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &InvalidParameterError{Param: p, Raw: raw, Err: errNotFinite}
	}
	f = clamp(f)
	switch p {
	case Attack:
		m.v.Attack = f
	case Decay:
		m.v.Decay = f
	case Sustain:
		m.v.Sustain = f
	case Release:
		m.v.Release = f
	}
	return nil
}

// AdjustVelocity maps a note velocity through the model's sustain level.
func (m *Model) AdjustVelocity(velocity int) float64 {
	return AdjustVelocity(velocity, m.v.Sustain)
}

// AdjustVelocity blends velocity towards 1 as sustain falls:
//
//	min(velocity*sustain + (1-sustain), 127)
//
// The result is returned unrounded. There is no floor clamp.
func AdjustVelocity(velocity int, sustain float64) float64 {
	return math.Min(float64(velocity)*sustain+(1-sustain), maxVelocity)
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

var errNotFinite = errors.New("not a finite number")

// unwrapNumError drops the strconv wrapper; InvalidParameterError already
// carries the raw input.
func unwrapNumError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}
