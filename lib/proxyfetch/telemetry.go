package proxyfetch

import (
	"seoassist-backend/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("seoassist.lib.proxyfetch")
var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables raw request/response dumps for
// debugging relay behavior. Call before NewFetcher.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
