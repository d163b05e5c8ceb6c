package artifact

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/beevik/etree"
)

// Coordinates identify an artifact in a Maven repository
type Coordinates struct {
	Group    string `json:"group"`
	Artifact string `json:"artifact"`
	Version  string `json:"version"`
}

// String renders group:artifact:version
func (c Coordinates) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// Complete reports whether every field is set
func (c Coordinates) Complete() bool {
	return c.Group != "" && c.Artifact != "" && c.Version != ""
}

// Merge fills empty fields of c from other
func (c Coordinates) Merge(other Coordinates) Coordinates {
	if c.Group == "" {
		c.Group = other.Group
	}
	if c.Artifact == "" {
		c.Artifact = other.Artifact
	}
	if c.Version == "" {
		c.Version = other.Version
	}
	return c
}

// RepositoryPath is where the jar lives inside a local repository rooted at repo
func (c Coordinates) RepositoryPath(repo string) string {
	return filepath.Join(repo,
		filepath.FromSlash(strings.ReplaceAll(c.Group, ".", "/")),
		c.Artifact, c.Version,
		c.Artifact+"-"+c.Version+".jar")
}

// POM holds what bonsetup needs from a project's pom.xml
type POM struct {
	Coordinates
	FinalName string
}

// JarName is the file mvn package writes under target/
func (p POM) JarName() string {
	if p.FinalName != "" {
		return p.FinalName + ".jar"
	}
	return p.Artifact + "-" + p.Version + ".jar"
}

// ReadPOM reads coordinates from a pom.xml. groupId and version are inherited
// from <parent> when the project does not set them.
func ReadPOM(path string) (POM, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return POM{}, errors.Wrapf(err, errors.ErrConfigParse, "failed to read %s", path)
	}

	project := doc.SelectElement("project")
	if project == nil {
		return POM{}, errors.Newf(errors.ErrConfigParse, "%s has no <project> element", path)
	}

	pom := POM{
		Coordinates: Coordinates{
			Group:    childText(project, "groupId"),
			Artifact: childText(project, "artifactId"),
			Version:  childText(project, "version"),
		},
	}
	if parent := project.SelectElement("parent"); parent != nil {
		pom.Coordinates = pom.Merge(Coordinates{
			Group:   childText(parent, "groupId"),
			Version: childText(parent, "version"),
		})
	}
	if el := project.FindElement("./build/finalName"); el != nil {
		pom.FinalName = strings.TrimSpace(el.Text())
	}
	return pom, nil
}

func childText(el *etree.Element, tag string) string {
	if child := el.SelectElement(tag); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}
