// Package kinematics holds the four-momentum helpers the selection code
// shares: energy from (pt, eta, phi, m), angular separation, the lepton
// relative transverse momentum and scalar sums.
package kinematics
