package sqlbase

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Statement Metrics
// --------------------------------------------------------------------------

// observe records one executed statement. Call it deferred with the start time
// and a pointer to the named error result of the operation.
func observe(impl, op string, start time.Time, err *error) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`braidwood_sql_statements_total{dialect=%q,op=%q}`, impl, op)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`braidwood_sql_duration_seconds{dialect=%q,op=%q}`, impl, op)).UpdateDuration(start)
	if err != nil && *err != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(`braidwood_sql_errors_total{dialect=%q,op=%q}`, impl, op)).Inc()
	}
}
