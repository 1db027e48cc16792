// Package analysis provides time-series tools for order-parameter
// histories.
//
//   - [PowerSpectrum]: magnitude spectrum of a zero-padded series
//   - [Autocorrelation]: normalized autocorrelation function
//   - [IntegratedTime]: integrated autocorrelation time
//   - [Detrend]: removal of a least-squares linear trend
//   - [Summarize]: descriptive statistics
//
// # Effective sample size
//
// Successive values of Φ are strongly correlated. The number of
// independent samples in a window of n steps is roughly n / (2τ):
//
//	tau := analysis.IntegratedTime(history[burnIn:])
//	eff := float64(len(history)-burnIn) / (2 * tau)
package analysis
