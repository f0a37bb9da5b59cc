//go:build windows

package gamectx

import "github.com/venusroot/bootstrap/internal/win32"

func emulationLayer() bool {
	return win32.IsWine()
}
