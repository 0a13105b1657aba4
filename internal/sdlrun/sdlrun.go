//go:build !js && !wasm

// Package sdlrun is an optional SDL2 viewer for the netcode demo: it polls
// an already-running simulation for a rendered RGBA framebuffer and feeds
// keyboard events into the Pico-8-style input package that GenerateLocalInput
// reads from, but it does not drive the simulation itself — that happens on
// whatever tick loop owns the netserver/netclient core.
package sdlrun

import (
	"image"
	"image/png"
	"os"
	"time"
	"unsafe"

	"github.com/retroforge/netcode-engine/internal/app"
	"github.com/retroforge/netcode-engine/internal/input"
	"github.com/veandco/go-sdl2/sdl"
)

// RunWindow opens an SDL window at width*scale by height*scale and redraws
// at its own pace by calling pixels() each frame, until ESC/Close or
// app.QuitRequested(). pixels must return width*height*4 RGBA bytes.
func RunWindow(width, height, scale int, pixels func() []byte) error {
	if scale <= 0 {
		scale = 2
	}
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return err
	}
	defer sdl.Quit()

	w := int32(width * scale)
	h := int32(height * scale)
	win, err := sdl.CreateWindow("netgame", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		return err
	}
	defer win.Destroy()

	ren, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return err
	}
	defer ren.Destroy()
	ren.SetLogicalSize(int32(width), int32(height))

	tex, err := ren.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, int32(width), int32(height))
	if err != nil {
		return err
	}
	defer tex.Destroy()

	var lastPix []byte
	running := true
	for running {
		input.Step()

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch ev := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				down := ev.Type == sdl.KEYDOWN
				if down && ev.Keysym.Sym == sdl.K_PRINTSCREEN {
					saveScreenshot(width, height, lastPix)
				}
				switch ev.Keysym.Sym {
				case sdl.K_LEFT:
					input.Set(input.BtnLeft, down)
				case sdl.K_RIGHT:
					input.Set(input.BtnRight, down)
				case sdl.K_UP:
					input.Set(input.BtnUp, down)
				case sdl.K_DOWN:
					input.Set(input.BtnDown, down)
				case sdl.K_z, sdl.K_RETURN:
					input.Set(input.BtnO, down)
				case sdl.K_x, sdl.K_SPACE:
					input.Set(input.BtnX, down)
				}
			}
		}

		if app.QuitRequested() {
			running = false
		}

		lastPix = pixels()
		var ptr unsafe.Pointer
		if len(lastPix) > 0 {
			ptr = unsafe.Pointer(&lastPix[0])
		}
		if err := tex.Update(nil, ptr, width*4); err != nil {
			return err
		}
		if err := ren.Clear(); err != nil {
			return err
		}
		if err := ren.Copy(tex, nil, nil); err != nil {
			return err
		}
		ren.Present()
	}
	return nil
}

func saveScreenshot(width, height int, pix []byte) {
	if len(pix) == 0 {
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)

	filename := time.Now().Format("screenshot-20060102-150405.png")
	f, err := os.Create(filename)
	if err != nil {
		return
	}
	defer f.Close()
	_ = png.Encode(f, img)
}
