package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldFile        = "file"
	FieldKind        = "kind"
	FieldOutcome     = "outcome"
	FieldRows        = "rows"
	FieldAttempt     = "attempt"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldDay         = "day"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentIngest    = "ingest"
	ComponentStorage   = "storage"
	ComponentAggregate = "aggregate"
	ComponentPipeline  = "pipeline"
	ComponentAMQP      = "amqp"
)
