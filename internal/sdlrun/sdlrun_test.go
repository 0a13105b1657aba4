//go:build !js && !wasm

package sdlrun

import "testing"

func TestSaveScreenshot(t *testing.T) {
	pix := make([]byte, 4*4*4)
	saveScreenshot(4, 4, pix)
}

func TestSaveScreenshotEdgeCases(t *testing.T) {
	// Empty buffer should not panic.
	saveScreenshot(4, 4, nil)

	// Repeated calls in quick succession.
	pix := make([]byte, 8*8*4)
	for i := 0; i < 10; i++ {
		saveScreenshot(8, 8, pix)
	}

	// Different dimensions.
	saveScreenshot(160, 160, make([]byte, 160*160*4))
	saveScreenshot(1, 1, make([]byte, 4))
}
