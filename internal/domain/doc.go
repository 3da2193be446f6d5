// Package domain contains the core entities of the adaptive assessment engine:
// learners and their attempt history, questions, interaction log records and
// model predictions. It is independent of storage and transport.
package domain
