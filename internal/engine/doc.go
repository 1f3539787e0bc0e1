// Package engine models a staged-combustion liquid rocket engine.
//
// The engine draws from two tanks, fuel and oxidizer, through two stages per
// tick:
//
//  1. Pre-burner: draws PreburnerTapOff of nominal flow, scaled by throttle.
//  2. Chamber: draws ChamberTapOff of nominal flow, scaled by the
//     pre-burner's combustion level (the turbopump runs on pre-burner gas).
//
// Each stage's combustion level is a number in [0,1]. A stage burns when its
// ignition flag is set or it is already burning (level > 0); otherwise it is
// forced to 0. Once lit, a stage keeps itself going without the ignition
// flag until starvation drives its level to 0.
//
// A stage's new level is min(fuel supply, oxidizer supply), where supply is
// drained/requested and a zero request counts as full supply. Throttle only
// sizes the pre-burner's request, so at full supply it does not change the
// level; it matters once a tank runs short.
//
// Every flow quantity is its nominal value times ThrustLevel:
//
//	ThrustLevel = PreburnerTapOff*preburner + ChamberTapOff*chamber
//
// ERRORS:
//
// Setters and New return contract-violation sentinels (ErrInvalidThrottle,
// ErrCompoundMismatch, ...). Tick returns a *Fault when a tank port is empty;
// the clock logs it and keeps going, and the combustion levels stay as they
// were.
//
// The engine does not own its tanks. Several engines may share one.
package engine
