// Package twofa defines the second-factor challenge values: the
// [LoginAttemptID] that names a pending challenge and the six-digit [Code]
// delivered to the user out of band.
package twofa
