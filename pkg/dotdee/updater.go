package dotdee

import (
	"bytes"
	"context"
	"path"

	"github.com/dustin/go-humanize"

	"github.com/openfroyo/dotdee/pkg/telemetry"
)

// Updater generates one file from its fragment directory.
type Updater struct {
	opts Options
	log  *telemetry.Logger
}

// Result describes a completed update.
type Result struct {
	// Path is the generated file.
	Path string

	// Checksum is the checksum stored for the written contents.
	Checksum string

	// Fragments lists what was included, in order.
	Fragments []Fragment

	// Bootstrapped is set when this update created the fragment directory.
	Bootstrapped bool

	// Forced is set when a modified target was overwritten.
	Forced bool

	// Changed is set when the new contents differ from what was on disk.
	Changed bool
}

// New returns an Updater for opts.Filename.
func New(opts Options) (*Updater, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Updater{
		opts: opts,
		log:  opts.Logger.NewComponentLogger("dotdee").WithTarget(opts.Filename),
	}, nil
}

// Options returns the options with defaults applied.
func (u *Updater) Options() Options {
	return u.opts
}

// UpdateFile regenerates the target. A nil force falls back to
// Options.Force. When the target was modified by hand since the last update
// and force is not set, a *RefuseToOverwriteError is returned and nothing is
// written.
func (u *Updater) UpdateFile(ctx context.Context, force *bool) (*Result, error) {
	forced := u.opts.Force
	if force != nil {
		forced = *force
	}

	timer := telemetry.NewTimer()
	ctx, span := u.opts.Tracer.StartSpan(ctx, "dotdee.update",
		telemetry.AttrTarget.String(u.opts.Filename),
		telemetry.AttrDirectory.String(u.opts.Directory),
		telemetry.AttrForce.Bool(forced),
		telemetry.AttrHost.String(u.opts.Context.String()),
	)
	defer span.End()
	if id := telemetry.TraceID(ctx); id != "" {
		u.log.Zerolog().Debug().Str("trace_id", id).Msg("Tracing update")
	}

	result, err := u.update(ctx, forced)

	label := telemetry.ResultFailed
	switch {
	case IsRefuseToOverwrite(err):
		label = telemetry.ResultRefused
	case err != nil:
	case result.Forced:
		label = telemetry.ResultForced
	case result.Changed:
		label = telemetry.ResultUpdated
	default:
		label = telemetry.ResultUnchanged
	}
	u.opts.Metrics.RecordUpdate(label, timer.Duration())

	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		telemetry.AttrChecksum.String(result.Checksum),
		telemetry.AttrFragments.Int(len(result.Fragments)),
	)
	telemetry.RecordSuccess(span)
	return result, nil
}

func (u *Updater) update(ctx context.Context, force bool) (*Result, error) {
	result := &Result{Path: u.opts.Filename}

	bootstrapped, err := u.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	result.Bootstrapped = bootstrapped

	contents, fragments, err := u.generate(ctx)
	if err != nil {
		return nil, err
	}
	result.Fragments = fragments

	current, exists, err := u.readIfFile(ctx, u.opts.Filename)
	if err != nil {
		return nil, err
	}
	result.Changed = !exists || !bytes.Equal(current, contents)

	if exists {
		modified, err := u.modified(ctx, current)
		if err != nil {
			return nil, err
		}
		if modified {
			if !force {
				return nil, &RefuseToOverwriteError{
					Filename:     u.opts.Filename,
					ChecksumFile: u.opts.ChecksumFile,
				}
			}
			u.log.Warnf("The contents of the file to generate (%s) were modified but --force was used so overwriting anyway!",
				u.opts.Filename)
			result.Forced = true
		}
	}

	u.log.Infof("Writing file: %s", u.opts.Filename)
	if err := u.opts.Context.WriteFile(ctx, u.opts.Filename, contents); err != nil {
		return nil, err
	}
	u.log.Debugf("Wrote %s (%s) to %s.", countLines(contents), humanize.Bytes(uint64(len(contents))), u.opts.Filename)
	u.opts.Metrics.SetGeneratedBytes(len(contents))

	result.Checksum = Checksum(contents)
	if err := u.opts.Context.WriteFile(ctx, u.opts.ChecksumFile, []byte(result.Checksum)); err != nil {
		return nil, err
	}
	return result, nil
}

// bootstrap puts an unmanaged target under management by creating the
// fragment directory and moving the target into it.
func (u *Updater) bootstrap(ctx context.Context) (bool, error) {
	ctx, span := u.opts.Tracer.StartSpan(ctx, "dotdee.bootstrap")
	defer span.End()

	isDir, err := u.opts.Context.IsDirectory(ctx, u.opts.Directory)
	if err != nil || isDir {
		telemetry.RecordError(span, err)
		return false, err
	}

	u.log.Infof("Creating directory %s ..", u.opts.Directory)
	if err := u.opts.Context.MakeDirs(ctx, u.opts.Directory); err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}

	isFile, err := u.opts.Context.IsFile(ctx, u.opts.Filename)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}
	if isFile {
		local := path.Join(u.opts.Directory, BootstrapName)
		u.log.Infof("Moving %s to %s ..", u.opts.Filename, local)
		if err := u.opts.Context.Rename(ctx, u.opts.Filename, local); err != nil {
			telemetry.RecordError(span, err)
			return false, err
		}
	}
	return true, nil
}

// generate materializes every fragment and concatenates the results.
func (u *Updater) generate(ctx context.Context) ([]byte, []Fragment, error) {
	fragments, err := u.Fragments(ctx)
	if err != nil {
		return nil, nil, err
	}

	blocks := make([][]byte, 0, len(fragments))
	for _, f := range fragments {
		block, err := u.materialize(ctx, f)
		if err != nil {
			return nil, nil, err
		}
		blocks = append(blocks, block)
	}
	return Concatenate(blocks), fragments, nil
}

// modified reports whether current no longer matches the stored checksum.
// Without a checksum file there is nothing to compare against.
func (u *Updater) modified(ctx context.Context, current []byte) (bool, error) {
	stored, ok, err := u.readIfFile(ctx, u.opts.ChecksumFile)
	if err != nil || !ok {
		return false, err
	}
	u.log.Infof("Checking for local changes to %s ..", u.opts.Filename)
	return Checksum(current) != string(bytes.TrimSpace(stored)), nil
}

// Render returns what UpdateFile would write without changing anything.
// For a target that is not managed yet, the target itself stands in for the
// fragment it would be moved to.
func (u *Updater) Render(ctx context.Context) ([]byte, []Fragment, error) {
	isDir, err := u.opts.Context.IsDirectory(ctx, u.opts.Directory)
	if err != nil {
		return nil, nil, err
	}
	if isDir {
		return u.generate(ctx)
	}

	current, exists, err := u.readIfFile(ctx, u.opts.Filename)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return Concatenate(nil), nil, nil
	}
	fragment := Fragment{
		Name: BootstrapName,
		Path: path.Join(u.opts.Directory, BootstrapName),
		Kind: KindStatic,
	}
	return Concatenate([][]byte{bytes.TrimRight(current, whitespace)}), []Fragment{fragment}, nil
}
