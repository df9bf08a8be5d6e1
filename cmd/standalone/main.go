//go:build !libretro && !ios

package main

import (
	"flag"
	"log"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/emsx/adapter"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (opens UI if not provided)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	biosPath := flag.String("bios", "", "path to the 32KB MSX BIOS (default $"+adapter.EnvBIOS+")")
	logoPath := flag.String("logo", "", "path to the 16KB MSX logo ROM (default $"+adapter.EnvLogo+")")
	spriteLimit := flag.Bool("sprite-limit", true, "limit sprites to four per line")
	flag.Parse()

	factory := &adapter.Factory{BIOSPath: *biosPath, LogoPath: *logoPath}

	if *romPath != "" {
		options := map[string]string{}
		if *spriteLimit {
			options["sprite_limit"] = "true"
		} else {
			options["sprite_limit"] = "false"
		}
		if err := standalone.RunDirect(factory, *romPath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
