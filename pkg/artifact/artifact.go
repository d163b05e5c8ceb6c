// Package artifact builds the Java libraries the Bonsai runtime links against
// and registers them in the local Maven repository.
package artifact

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/paths"
	"github.com/arthur-debert/bonsetup/pkg/probe"
	"github.com/arthur-debert/bonsetup/pkg/runner"
	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/arthur-debert/bonsetup/pkg/workdir"
)

// DefaultLocalRepository is Maven's default local repository
const DefaultLocalRepository = "~/.m2/repository"

// MavenHint is shown when mvn cannot be found
const MavenHint = "Please install Maven (see https://maven.apache.org/ or `bonsetup guide maven`)"

// Spec is one library to register. Exactly one of SourceDir and URL is set.
type Spec struct {
	// Name labels the step in reports
	Name string

	// Coordinates may be partial for local sources; pom.xml fills the rest
	Coordinates Coordinates

	// SourceDir is a Maven project packaged with mvn package
	SourceDir string

	// URL is a prebuilt jar fetched with curl
	URL string

	// Jar overrides the packaged jar path, relative to SourceDir
	Jar string
}

// Upstream reports whether the jar is downloaded rather than built
func (s Spec) Upstream() bool {
	return s.URL != ""
}

// Options configures the layer
type Options struct {
	// Maven is the mvn executable
	Maven string

	// LocalRepository is where registered jars end up
	LocalRepository string

	// DownloadPath maps a file name to its location in the download cache
	DownloadPath func(name string) string
}

// Layer ensures library artifacts are registered
type Layer struct {
	installer *step.Installer
	opts      Options
}

// New creates an artifact layer
func New(installer *step.Installer, opts Options) *Layer {
	if opts.Maven == "" {
		opts.Maven = "mvn"
	}
	if opts.LocalRepository == "" {
		opts.LocalRepository = DefaultLocalRepository
	}
	opts.LocalRepository = paths.ExpandHome(opts.LocalRepository)
	if opts.DownloadPath == nil {
		cache := filepath.Join(os.TempDir(), "bonsetup-downloads")
		opts.DownloadPath = func(name string) string { return filepath.Join(cache, name) }
	}
	return &Layer{installer: installer, opts: opts}
}

// Resolve completes the coordinates of spec. pom.xml is only read for local
// sources whose coordinates are partial, so a registered artifact resolves
// without its source tree.
func (l *Layer) Resolve(spec Spec) (Coordinates, error) {
	coords := spec.Coordinates
	if !spec.Upstream() && !coords.Complete() {
		pom, err := ReadPOM(filepath.Join(spec.SourceDir, "pom.xml"))
		if err != nil {
			return coords, err
		}
		coords = coords.Merge(pom.Coordinates)
	}
	if !coords.Complete() {
		return coords, errors.Newf(errors.ErrConfigInvalid,
			"incomplete Maven coordinates for %s: %q", spec.Name, coords.String())
	}
	return coords, nil
}

// JarPath returns the packaged jar of a local source, relative to SourceDir
func (l *Layer) JarPath(spec Spec) (string, error) {
	if spec.Jar != "" {
		return spec.Jar, nil
	}
	pom, err := ReadPOM(filepath.Join(spec.SourceDir, "pom.xml"))
	if err != nil {
		return "", err
	}
	return path.Join("target", pom.JarName()), nil
}

// Probe checks the local repository for the registered jar
func (l *Layer) Probe(coords Coordinates) probe.Prober {
	return probe.FileProbe{Path: coords.RepositoryPath(l.opts.LocalRepository)}
}

// Ensure registers spec unless it is already in the local repository. The
// repository is checked before the source tree is touched. Local sources are
// packaged from inside their directory, and the previous working directory is
// restored whatever the outcome.
func (l *Layer) Ensure(ctx context.Context, spec Spec) step.Outcome {
	logger := logging.GetLogger("artifact").With().Str("artifact", spec.Name).Logger()

	coords, err := l.Resolve(spec)
	if err != nil {
		return step.Outcome{Step: spec.Name, Status: step.StatusFailedFatal, Err: err}
	}

	registered := l.Probe(coords)
	if presence, _ := registered.Check(ctx); presence == probe.Present {
		logger.Info().Str("coordinates", coords.String()).Msg("Artifact already registered")
		return step.Outcome{
			Step:    spec.Name,
			Version: coords.Version,
			Status:  step.StatusAlreadySatisfied,
			Detail:  registered.Describe(),
		}
	}

	if spec.Upstream() {
		file := l.opts.DownloadPath(coords.Artifact + "-" + coords.Version + ".jar")
		if !l.installer.DryRun() {
			if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
				return step.Outcome{Step: spec.Name, Version: coords.Version, Status: step.StatusFailedFatal,
					Err: errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", filepath.Dir(file))}
			}
		}
		return l.installer.Run(ctx, l.upstreamSpec(spec, coords, file))
	}

	if l.installer.DryRun() {
		jar, err := l.JarPath(spec)
		if err != nil {
			jar = path.Join("target", coords.Artifact+"-"+coords.Version+".jar")
		}
		return l.installer.Run(ctx, l.localSpec(spec, coords, jar))
	}

	restore, err := workdir.Enter(spec.SourceDir)
	if err != nil {
		return step.Outcome{Step: spec.Name, Version: coords.Version, Status: step.StatusFailedFatal, Err: err}
	}
	defer restore()

	jar, err := l.JarPath(spec)
	if err != nil {
		return step.Outcome{Step: spec.Name, Version: coords.Version, Status: step.StatusFailedFatal, Err: err}
	}

	logger.Debug().Str("dir", spec.SourceDir).Str("coordinates", coords.String()).Msg("Building artifact")
	return l.installer.Run(ctx, l.localSpec(spec, coords, jar))
}

func (l *Layer) localSpec(spec Spec, coords Coordinates, jar string) step.DependencySpec {
	return step.DependencySpec{
		Name:     spec.Name,
		Version:  coords.Version,
		Presence: l.Probe(coords),
		Install: []runner.Command{
			runner.Cmd(l.opts.Maven, "package", "-quiet", "--fail-fast").Streaming(),
			l.register(coords, jar),
		},
		Verify: l.Probe(coords),
		Hints:  map[string]string{l.opts.Maven: MavenHint},
	}
}

func (l *Layer) upstreamSpec(spec Spec, coords Coordinates, file string) step.DependencySpec {
	return step.DependencySpec{
		Name:     spec.Name,
		Version:  coords.Version,
		Presence: l.Probe(coords),
		Install: []runner.Command{
			runner.Cmd("curl", "-fsSL", spec.URL, "-o", file),
			l.register(coords, file),
		},
		Verify: l.Probe(coords),
		Hints: map[string]string{
			l.opts.Maven: MavenHint,
			"curl":       "Please install curl to download " + spec.URL,
		},
	}
}

func (l *Layer) register(coords Coordinates, jar string) runner.Command {
	return runner.Cmd(l.opts.Maven, "install:install-file",
		"-DgroupId="+coords.Group,
		"-DartifactId="+coords.Artifact,
		"-Dversion="+coords.Version,
		"-Dpackaging=jar",
		"-Dfile="+jar,
		"-quiet", "--fail-fast",
	).Streaming()
}

// Check reports whether spec is registered, without building anything
func (l *Layer) Check(ctx context.Context, spec Spec) (probe.Presence, error) {
	coords, err := l.Resolve(spec)
	if err != nil {
		return probe.Indeterminate, err
	}
	return l.Probe(coords).Check(ctx)
}
