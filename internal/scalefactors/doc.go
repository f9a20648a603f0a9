// Package scalefactors provides the event-weight inputs of the selection:
// binned weight tables (Weights) looked up by candidate kinematics, and the
// b-tag calibration evaluator (Calibration).
//
// Tables are stored as go-hep hbook histograms, one for the central values
// and one for the uncertainties. Lookups outside the binned range clamp to
// the edge bins. Up and Down variations are the central value plus or minus
// the stored uncertainty.
package scalefactors
