//go:build opencv

package main

import "github.com/ironsheep/plate-reader/internal/enhance"

func newEnhancer() enhance.Enhancer {
	return enhance.NewOpenCV()
}
