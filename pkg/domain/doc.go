/*
Package domain contains the core models of the conversation engine.

It is kept free of I/O so that every piece can be reasoned about and tested in
isolation.

# Key Entities

  - History: a bounded, most-recent-first log, instantiated for strings and,
    as NestedHistory, for histories of strings.
  - TurnContext: the "that" sentences produced while a turn is in progress.
  - TurnResult: a reply plus whether it was generated or recovered from a failure.
  - Snapshot: the serializable state of a session between turns.
  - Triple: a (subject, predicate, object) fact.
*/
package domain
