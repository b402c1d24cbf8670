package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ TokenService       = (*Manager)(nil)
	_ TransactionalStore = (*MemoryTokenStore)(nil)
	_ TokenLister        = (*MemoryTokenStore)(nil)
	_ MetricsRecorder    = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
