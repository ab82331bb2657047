// Package build provides the kernel build pipeline: toolchain provisioning,
// variant integration, configuration, compilation, packaging and release.
package build

import (
	"context"

	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the build package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// StageName identifies a pipeline stage
type StageName string

// Pipeline stages, in execution order
const (
	StageToolchain   StageName = "toolchain"
	StageEnvironment StageName = "environment"
	StageIntegrate   StageName = "integrate"
	StageVersion     StageName = "version"
	StageDefconfig   StageName = "defconfig"
	StageKconfig     StageName = "kconfig"
	StageStamp       StageName = "stamp"
	StageCompile     StageName = "compile"
	StagePackage     StageName = "package"
	StagePublish     StageName = "publish"
	StageRelease     StageName = "release"
)

// Stage defines the interface for a single build pipeline stage
type Stage interface {
	// Name returns the stage name
	Name() StageName

	// Validate checks whether this stage can run given the current context
	Validate(ctx context.Context, sc *StageContext) error

	// Execute runs the stage, updating progress via the callback
	Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error
}

// ProgressFunc reports stage progress (0-100) with an optional message
type ProgressFunc func(percent int, message string)
