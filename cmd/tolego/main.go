// tolego - turn images into lego brick mosaics
//
// tolego averages each square cell of an image and redraws it as a brick
// tinted with that colour.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

//go:generate go run ../../testdata/generate_brick.go -o ../../brick.jpg

import (
	"os"

	"github.com/jmylchreest/tolego/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
