package ports

import (
	"context"
	"io"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
)

// ShellRunner executes one generated phase script and reports its exit
// status. Implementations answer interactive prompts along the way: the
// elevated-privilege rules always apply, extra rules are checked after
// them in declaration order.
//
// The returned error is non-nil only when no exit status could be
// determined (spawn failure, I/O failure, deadline expiry, cancellation).
type ShellRunner interface {
	RunScript(ctx context.Context, script string, extra []testrun.ExpectRule, output io.Writer) (int, error)
}
