// Package viz renders engine results in the terminal: styled performance
// tables, Braille P–V diagrams and a Bubble Tea progress view for speed sweeps.
package viz
