package dotdee

import (
	"bytes"
	"context"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/maruel/natural"

	"github.com/openfroyo/dotdee/pkg/telemetry"
)

// Fragment kinds, also used as metric labels.
const (
	KindStatic     = "static"
	KindExecutable = "executable"
)

// Fragment is one entry of the fragment directory.
type Fragment struct {
	Name string
	Path string
	Kind string
}

// Fragments lists the visible entries of the fragment directory in natural
// order. Entries whose name starts with a dot are skipped.
func (u *Updater) Fragments(ctx context.Context) ([]Fragment, error) {
	entries, err := u.opts.Context.ListEntries(ctx, u.opts.Directory)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, name := range entries {
		if !strings.HasPrefix(name, ".") {
			names = append(names, name)
		}
	}
	sort.Sort(natural.StringSlice(names))

	fragments := make([]Fragment, 0, len(names))
	for _, name := range names {
		p := path.Join(u.opts.Directory, name)
		executable, err := u.opts.Context.IsExecutable(ctx, p)
		if err != nil {
			return nil, &FragmentError{Path: p, Err: err}
		}
		kind := KindStatic
		if executable {
			kind = KindExecutable
		}
		fragments = append(fragments, Fragment{Name: name, Path: p, Kind: kind})
	}
	return fragments, nil
}

// materialize returns the contents of a fragment with trailing whitespace
// removed.
func (u *Updater) materialize(ctx context.Context, f Fragment) ([]byte, error) {
	ctx, span := u.opts.Tracer.StartSpan(ctx, "dotdee.fragment",
		telemetry.AttrFragment.String(f.Path),
		telemetry.AttrFragmentKind.String(f.Kind),
	)
	defer span.End()

	var (
		contents []byte
		err      error
	)
	if f.Kind == KindExecutable {
		u.log.Infof("Executing file: %s", f.Path)
		contents, err = u.opts.Context.Execute(ctx, f.Path)
		if err == nil {
			u.log.Debugf("Execution of %s yielded %s of output.", f.Path, countLines(contents))
		}
	} else {
		u.log.Infof("Reading file: %s", f.Path)
		contents, err = u.opts.Context.ReadFile(ctx, f.Path)
		if err == nil {
			u.log.Debugf("Read %s from %s.", countLines(contents), f.Path)
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, &FragmentError{Path: f.Path, Err: err}
	}

	u.opts.Metrics.RecordFragment(f.Kind)
	telemetry.RecordSuccess(span)
	return bytes.TrimRight(contents, whitespace), nil
}

const whitespace = " \t\r\n\v\f"

func countLines(data []byte) string {
	n := bytes.Count(data, []byte("\n"))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return english.Plural(n, "line", "")
}
