// Package smote balances a labeled training set by synthetic minority
// oversampling.
//
// Every class smaller than the majority receives synthetic samples placed
// on the segment between one of its members and a randomly chosen member of
// that sample's k nearest same-label neighbors.
package smote
