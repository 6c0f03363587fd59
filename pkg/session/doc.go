/*
Package session parks conversations in a snapshot store between turns.

A Manager serializes the turns of one session (in process with reference
counted mutexes, across replicas with an optional distributed lock), restores
the conversation from its snapshot, runs the turn and saves the result.
Independent sessions proceed concurrently.
*/
package session
