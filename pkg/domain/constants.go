package domain

// Defaults used when the configuration leaves a value unset.
const (
	DefaultThat               = "unknown"
	DefaultTopic              = "unknown"
	DefaultNullInput          = "$NULL_INPUT$"
	DefaultRepetitionSentinel = "REPETITIONDETECTED"
	DefaultErrorResponse      = "Something is wrong with my brain."
	DefaultMaxHistory         = 32
	DefaultRepetitionCount    = 2
)

// TopicPredicate is the predicate read before every sentence.
const TopicPredicate = "topic"
