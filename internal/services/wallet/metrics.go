package wallet

import "github.com/shopspring/decimal"

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperation(string, string)           {}
func (n *NoopMetricsCollector) RecordBalanceChange(uint, decimal.Decimal) {}
func (n *NoopMetricsCollector) RecordError(string, string)               {}
