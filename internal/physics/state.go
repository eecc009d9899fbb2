// Package physics owns the simulation state of the polarized target and the
// polarization models that evolve it.
//
// Units follow the conventions of the target group: polarization as a
// fraction in [-1, 1], dose in 10^15 e-/cm^2, time in seconds, frequency in
// GHz, field in tesla, temperature in kelvin.
package physics

// State is the complete mutable state of the simulated target. It is owned
// by the Engine; everything else reads it through Engine accessors.
type State struct {
	// Time is the simulated time in seconds. Never decreases.
	Time float64

	// Field is the magnetic field in tesla.
	Field float64

	// Temperature is the material temperature in kelvin.
	Temperature float64

	// Frequency is the applied microwave frequency in GHz.
	Frequency float64

	// Polarization is the current polarization fraction.
	Polarization float64

	// PolarizationRate is the rate of polarization change in 1/s. Derived
	// from successive steps unless the controller box supplies it.
	PolarizationRate float64

	// Dose is the accumulated radiation dose. Never decreases, and only
	// grows while the beam is on.
	Dose float64

	// DoseRate is the current dose deposit rate in dose units per second.
	DoseRate float64

	// LastAnnealDose is the accumulated dose at the most recent anneal.
	LastAnnealDose float64

	// AnnealCount is the number of completed anneals.
	AnnealCount uint32

	// SteadyState is the polarization the current conditions would reach
	// given unlimited time. Never exceeds MaxSteadyState.
	SteadyState float64

	// MaxSteadyState is the maximum achievable polarization at 1 K.
	MaxSteadyState float64

	// MaxPolRate is the ceiling on the polarization rate. Beam trips
	// temporarily raise it tenfold.
	MaxPolRate float64

	// KVal is the growth/decay rate constant from the last model step,
	// retained for telemetry only.
	KVal float64

	// BeamOn reports whether the beam is currently depositing dose.
	BeamOn bool

	// RandomnessEnabled enables thermal fluctuations in the stochastic model.
	RandomnessEnabled bool

	// FollowIdealFrequency slaves the applied frequency to the ideal
	// frequency for the current polarization sign. Batch mode only.
	FollowIdealFrequency bool

	// Direction is the last motor direction reported by the controller box.
	// Meaningless until HasDirection is set.
	Direction float64

	// HasDirection reports whether the controller has sent a direction yet.
	HasDirection bool
}
