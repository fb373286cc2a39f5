// Package generator produces toy events distributed according to the
// amplitude model of a [dynamo.Engine] by accept/reject sampling.
//
// Points are drawn uniformly in the conventional DP (or in the square DP,
// then weighted by the Jacobian) and accepted with probability
// value/envelope. A value above the envelope raises the envelope to 1.01
// times that value; the point is not accepted and the attempt reports
// [ASqMaxError], since events generated before the raise were drawn from a
// clipped density. An attempt that exhausts its iteration budget reports
// [MaxIterError] and adapts either the envelope or the budget for the next
// attempt.
//
// A Generator owns its random source, so a fixed seed and fixed model
// parameters reproduce the same sample.
package generator
