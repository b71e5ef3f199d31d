package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
}

// LookPathFunc resolves an executable name on the command search path.
type LookPathFunc func(file string) (string, error)

// Prober checks external tools. The zero value uses exec.LookPath and does
// not query versions.
type Prober struct {
	LookPath LookPathFunc
	// WithVersion runs the tool once to read its version banner.
	WithVersion bool
}

// versionArgs holds the flag each known tool prints its version with.
var versionArgs = map[string]string{
	"arecord":  "--version",
	"parecord": "--version",
	"ffmpeg":   "-version",
}

// Check reports whether name resolves on PATH.
func (p Prober) Check(name string) Status {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(name)
	if err != nil {
		return Status{Name: name, Installed: false}
	}

	status := Status{
		Name:      name,
		Installed: true,
		Path:      path,
	}

	if p.WithVersion {
		status.Version = readVersion(path, versionArgs[name])
	}

	return status
}

// First returns the status of the first installed tool in names, in order.
func (p Prober) First(names ...string) (Status, bool) {
	for _, name := range names {
		if st := p.Check(name); st.Installed {
			return st, true
		}
	}
	return Status{}, false
}

// Check checks a tool on PATH, including its version.
func Check(name string) Status {
	return Prober{WithVersion: true}.Check(name)
}

// Recorders lists the external recording tools in probe priority.
var Recorders = []string{"arecord", "parecord", "ffmpeg"}

// CheckRecorders checks every external recorder, in probe priority.
func CheckRecorders() []Status {
	statuses := make([]Status, 0, len(Recorders))
	for _, name := range Recorders {
		statuses = append(statuses, Check(name))
	}
	return statuses
}

// CheckFFmpeg checks if ffmpeg is installed and returns its status
func CheckFFmpeg() Status {
	return Check("ffmpeg")
}

func readVersion(path, flag string) string {
	if flag == "" {
		return ""
	}
	output, err := exec.Command(path, flag).Output()
	if err != nil {
		return ""
	}
	// first line carries the version banner
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0])
	}
	return ""
}
