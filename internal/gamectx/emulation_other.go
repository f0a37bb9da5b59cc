//go:build !windows

package gamectx

func emulationLayer() bool {
	return false
}
