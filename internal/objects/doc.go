// Package objects implements the physics object kinds of the analysis: Jet,
// Muon and Electron. Each embeds a particle.Particle and derives its tiers in
// one pass per systematic.
//
// Per systematic the leptons run first. Every lepton promoted to Fake
// records its closest jet in the pass Overlap, and the jet pass consumes the
// merged Overlap to drop jets that coincide with a selected lepton:
//
//	particle.SetGoodParticles(muons, s, jets)
//	particle.SetGoodParticles(electrons, s, jets)
//	particle.SetGoodParticles(jets, s, muons.Overlap().Merge(electrons.Overlap()))
package objects
