//go:build windows

package engine

import (
	"syscall"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

var (
	dwmapi                    = syscall.NewLazyDLL("dwmapi.dll")
	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")
)

const (
	DWMWA_USE_IMMERSIVE_DARK_MODE = 20
	DWMWA_BORDER_COLOR            = 34
	DWMWA_CAPTION_COLOR           = 35
)

// setTitleBarColor tints the caption and border to match the scene
// background.
func setTitleBarColor(window *glfw.Window, r, g, b float32) {
	hwnd := window.GetWin32Window()
	if hwnd == nil {
		return
	}

	var darkMode int32 = 1
	setAttribute(uintptr(unsafe.Pointer(hwnd)), DWMWA_USE_IMMERSIVE_DARK_MODE, unsafe.Pointer(&darkMode), unsafe.Sizeof(darkMode))

	// COLORREF is 0x00BBGGRR.
	colorref := uint32(uint8(r*255)) | uint32(uint8(g*255))<<8 | uint32(uint8(b*255))<<16
	setAttribute(uintptr(unsafe.Pointer(hwnd)), DWMWA_BORDER_COLOR, unsafe.Pointer(&colorref), unsafe.Sizeof(colorref))
	setAttribute(uintptr(unsafe.Pointer(hwnd)), DWMWA_CAPTION_COLOR, unsafe.Pointer(&colorref), unsafe.Sizeof(colorref))
}

func setAttribute(hwnd uintptr, attr uintptr, value unsafe.Pointer, size uintptr) {
	procDwmSetWindowAttribute.Call(hwnd, attr, uintptr(value), size)
}
