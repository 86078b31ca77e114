package ports

import "github.com/huanghao/nose-xcase/internal/domain/testrun"

// ResultSink receives run lifecycle notifications. For every run the engine
// calls TestStart, then exactly one of the Add methods, then TestStop.
type ResultSink interface {
	TestStart(c *testrun.Case)
	TestStop(c *testrun.Case)
	AddSuccess(c *testrun.Case)
	AddFailure(c *testrun.Case)
	AddSkipped(c *testrun.Case, reason string)
	AddException(c *testrun.Case, err error)
}
