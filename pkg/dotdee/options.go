package dotdee

import (
	"errors"
	"path"

	"github.com/openfroyo/dotdee/pkg/contexts"
	"github.com/openfroyo/dotdee/pkg/telemetry"
)

// BootstrapName is the fragment the existing target is moved to when a file
// is first put under management.
const BootstrapName = "local"

// ChecksumName is the name of the checksum file inside the fragment
// directory. Its leading dot keeps it out of the fragment list.
const ChecksumName = ".checksum"

// Options configures an Updater.
type Options struct {
	// Filename is the file to generate. Required.
	Filename string

	// Directory holds the fragments. Defaults to Filename + ".d".
	Directory string

	// ChecksumFile stores the checksum of the last generated contents.
	// Defaults to Directory + "/.checksum".
	ChecksumFile string

	// Force overwrites a target that was modified since the last update.
	Force bool

	// Context performs all file and process access. Defaults to the local
	// machine.
	Context contexts.Context

	// Logger defaults to a logger that discards everything.
	Logger *telemetry.Logger

	// Metrics and Tracer are optional.
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
}

// withDefaults validates o and fills in the derived fields. Paths are joined
// with forward slashes because the target system may not be the local one.
func (o Options) withDefaults() (Options, error) {
	if o.Filename == "" {
		return o, errors.New("filename is required")
	}
	if o.Directory == "" {
		o.Directory = o.Filename + ".d"
	}
	if o.ChecksumFile == "" {
		o.ChecksumFile = path.Join(o.Directory, ChecksumName)
	}
	if o.Context == nil {
		o.Context = contexts.NewLocal()
	}
	if o.Logger == nil {
		o.Logger = telemetry.NopLogger()
	}
	if o.Tracer == nil {
		o.Tracer = telemetry.NopTracer()
	}
	return o, nil
}
