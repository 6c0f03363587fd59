/*
Package ports defines the driven ports (interfaces) of the conversation engine.

These interfaces decouple the turn-processing core from the collaborators it
relies on, so that text processing, response generation, knowledge storage and
session persistence can all be swapped without touching the core.

# Key Interfaces

  - Normalizer, Tokenizer, SentenceSplitter: pure text preprocessing.
  - Responder: turns one sentence into a reply (may fail).
  - PredicateStore: session-scoped key/value predicates.
  - TripleStore: knowledge facts shared by sessions.
  - LearnedFlusher: persists whatever the responder learned.
  - SnapshotStore: parks session state between turns.
  - DistributedLocker: coordinates session access across replicas.
  - CommandExecutor: runs allow-listed external commands.
*/
package ports
