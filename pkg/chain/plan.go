package chain

import (
	"context"

	"github.com/arthur-debert/bonsetup/pkg/artifact"
	"github.com/arthur-debert/bonsetup/pkg/compiler"
	"github.com/arthur-debert/bonsetup/pkg/envpatch"
	"github.com/arthur-debert/bonsetup/pkg/host"
	"github.com/arthur-debert/bonsetup/pkg/probe"
	"github.com/arthur-debert/bonsetup/pkg/profiles"
	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/arthur-debert/bonsetup/pkg/toolchain"
)

// Layers are the installers a plan is built from
type Layers struct {
	Toolchain *toolchain.Layer
	Compiler  *compiler.Layer
	Artifacts *artifact.Layer
	EnvPatch  *envpatch.Step
	Host      host.Profile

	// SourcePath resolves profile paths against the Bonsai checkout
	SourcePath func(rel string) string
}

// Plan turns a profile into stages: toolchain, compiler, the shell patch
// when the profile asks for it, upstream libraries, then the libraries
// built from the checkout.
func Plan(p profiles.Profile, l Layers) []Stage {
	stages := []Stage{
		{
			Name: toolchain.StepName,
			Run: func(ctx context.Context) step.Outcome {
				return l.Toolchain.Ensure(ctx, p.Toolchain)
			},
			Check: l.Toolchain.Probe(p.Toolchain).Check,
		},
	}

	compilerSpec := compiler.Spec{
		Repository: p.Compiler.Repository,
		ForceLocal: p.Compiler.ForceLocal,
	}
	if p.Compiler.SourceDir != "" {
		compilerSpec.SourceDir = l.SourcePath(p.Compiler.SourceDir)
	}
	stages = append(stages, Stage{
		Name: compiler.StepName,
		Run: func(ctx context.Context) step.Outcome {
			return l.Compiler.Ensure(ctx, compilerSpec)
		},
		Check: l.Compiler.Probe(compilerSpec).Check,
	})

	if p.EnvPatch {
		stages = append(stages, Stage{
			Name: envpatch.StepName,
			Run: func(ctx context.Context) step.Outcome {
				return l.EnvPatch.Run(ctx, l.Host)
			},
		})
	}

	for _, lib := range append(p.Upstreams(), p.Produced()...) {
		spec := artifactSpec(lib, l.SourcePath)
		stages = append(stages, Stage{
			Name: lib.Name,
			Run: func(ctx context.Context) step.Outcome {
				return l.Artifacts.Ensure(ctx, spec)
			},
			Check: func(ctx context.Context) (probe.Presence, error) {
				return l.Artifacts.Check(ctx, spec)
			},
		})
	}
	return stages
}

func artifactSpec(lib profiles.Library, sourcePath func(string) string) artifact.Spec {
	spec := artifact.Spec{
		Name: lib.Name,
		Coordinates: artifact.Coordinates{
			Group:    lib.Group,
			Artifact: lib.Artifact,
			Version:  lib.Version,
		},
		URL: lib.URL,
		Jar: lib.Jar,
	}
	if lib.Source != "" {
		spec.SourceDir = sourcePath(lib.Source)
	}
	return spec
}
