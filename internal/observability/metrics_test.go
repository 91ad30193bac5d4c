package observability

import "testing"

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordConnectionOpened("server")
	RecordFrame("server", "in")
	RecordFrame("server", "out")
	RecordFrameError("server", "malformed")
	RecordConnectionClosed("server")
}
