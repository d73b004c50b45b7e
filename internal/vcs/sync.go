package vcs

import (
	"context"
	"os"

	"github.com/specialistvlad/sandplan/internal/ctxlog"
)

// CloneOrUpdate makes sure the working copy of p at path exists and is up to
// date. A directory without a working copy is removed before cloning. When
// updating fails, the working copy is thrown away and cloned again.
func CloneOrUpdate(ctx context.Context, p Provider, path string, force bool) error {
	logger := ctxlog.FromContext(ctx).With("path", path)

	if !p.Exists(ctx) {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
		return p.Init(ctx)
	}

	err := p.Update(ctx, force)
	if err == nil {
		return nil
	}
	logger.Warn("Update failed, cloning again.", "error", err)
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	return p.Init(ctx)
}
