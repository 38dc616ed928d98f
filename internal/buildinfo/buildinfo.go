// Package buildinfo prints build metadata injected at link time via ldflags:
//
//	-X github.com/plantfolk/plantkeeper/internal/buildinfo.buildVersion=...
//	-X github.com/plantfolk/plantkeeper/internal/buildinfo.buildDate=...
//	-X github.com/plantfolk/plantkeeper/internal/buildinfo.buildCommit=...
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", buildVersion)
	fmt.Fprintf(w, "Build date: %s\n", buildDate)
	fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
}
