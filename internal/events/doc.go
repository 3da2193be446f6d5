// Package events decouples the quiz flow from the work it triggers.
//
// The quiz service emits a quiz_graded Event after grading; handlers
// registered on the InMemoryEventEmitter react to it, for example by
// queueing a background retrain. Producers never import the consumers.
package events
