// Package manager ties the capture, detection and persistence layers into
// the operations the HTTP API exposes. One analysis cycle runs synchronously
// end to end; concurrent cycles are not coordinated against each other and
// may legitimately collide on camera hardware.
package manager
