package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/emsx/adapter"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadB, BitID: 4},      // Trigger 1
		{RetroID: libretro.JoypadA, BitID: 5},      // Trigger 2
		{RetroID: libretro.JoypadStart, BitID: 6},  // Special 1
		{RetroID: libretro.JoypadSelect, BitID: 7}, // Special 2
	})
}

func main() {}
