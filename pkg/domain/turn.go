package domain

// TurnPhase names the steps a conversation goes through while handling one turn.
type TurnPhase string

const (
	PhaseIdle        TurnPhase = "idle"
	PhaseNormalizing TurnPhase = "normalizing"
	PhaseSplitting   TurnPhase = "splitting"
	PhaseSentence    TurnPhase = "sentence"
	PhaseCommitting  TurnPhase = "committing"
)

// TurnContext accumulates the reply sentences ("that" values) produced while a
// turn is in progress. It is created empty at the start of every turn and
// committed into the session's nested that-history exactly once, on success.
type TurnContext struct {
	thats *History[string]
}

// NewTurnContext creates an empty accumulator bounded like the outer history.
func NewTurnContext(capacity int) *TurnContext {
	return &TurnContext{thats: NewHistory[string](capacity, "contextThat")}
}

// Add records one reply sentence.
func (c *TurnContext) Add(sentence string) {
	c.thats.Add(sentence)
}

// Len returns the number of sentences recorded so far.
func (c *TurnContext) Len() int {
	return c.thats.Len()
}

// Latest returns the most recent sentence produced during this turn.
func (c *TurnContext) Latest() (string, bool) {
	return c.thats.Get(0)
}

// Sentences returns the recorded sentences, most recent first.
func (c *TurnContext) Sentences() []string {
	return c.thats.Items()
}

// History exposes the underlying history for the commit into a NestedHistory.
func (c *TurnContext) History() *History[string] {
	return c.thats
}

// TurnResult is the outcome of a turn.
//
// Reply is what the client sees. When Recovered is true the turn failed, Reply
// holds the configured error response and Err the cause; none of the turn-level
// histories were committed.
type TurnResult struct {
	Reply     string `json:"reply"`
	Recovered bool   `json:"recovered"`
	Sentences int    `json:"sentences"`
	Err       error  `json:"-"`
}

// OK reports whether the reply was actually generated.
func (r TurnResult) OK() bool {
	return !r.Recovered
}
