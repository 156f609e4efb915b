// Package services implements the driving port interfaces.
// Services contain the pipeline logic and orchestrate calls to driven
// ports (adapters). They receive their configuration explicitly and hold
// no package-level state.
package services
