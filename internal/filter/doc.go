// Package filter provides the separable cone blur used to build the
// reflection mip pyramid.
//
// Each pyramid level is a Gaussian blur of the previous level whose width
// grows with the level's cone exponent. The blur runs as two 1D passes
// (horizontal into a float scratch buffer, then vertical into the
// destination) and can downsample at the same time, so a level can be
// produced directly from the level above it.
package filter
