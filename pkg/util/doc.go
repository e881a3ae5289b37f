// Package util provides small generic containers shared by the emitter,
// match, and timing packages
//
// It includes a comparable set and a hierarchical path index used to key
// scheduled tasks
package util
