// Package harness runs YAML test scenarios against a simulated vehicle.
//
// A scenario names a vehicle (inline CUE or a path to a .cue file), a list
// of steps and a list of assertions on the final state:
//
//	name: starvation
//	description: one engine burns the fuel tank dry
//	vehicle: ../vehicles/single.cue
//	steps:
//	  - fire: 24
//	  - set: {engine: main, throttle: 0.5}
//	  - fire: 24
//	assertions:
//	  - type: thrust_level
//	    engine: main
//	    expect: 0
//	    tolerance: 1e-9
//
// Every run builds a fresh vehicle and drives its clock with Run, never the
// real-time driver, so the same scenario always produces the same trace. The
// trace holds one snapshot per step and is what RunWithGolden compares
// against testdata/golden/<name>.golden.
package harness
